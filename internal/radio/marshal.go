package radio

import "encoding/binary"

// marshalTx writes cmd into buf (which must be at least len(CommandTx)
// bytes, see record.go's compile-time size assertion) in the same field
// order the struct declares, mirroring the teacher's uapi.Marshal: plain
// binary.LittleEndian writes rather than an unsafe reinterpret-cast, since
// there is no real shared address space to cast into here.
func marshalTx(buf []byte, cmd CommandTx) {
	binary.LittleEndian.PutUint16(buf[0:2], cmd.CommandNo)
	binary.LittleEndian.PutUint16(buf[2:4], cmd.Status)
	binary.LittleEndian.PutUint32(buf[4:8], cmd.PNextOp)
	binary.LittleEndian.PutUint32(buf[8:12], cmd.StartTime)
	buf[12] = cmd.StartTrigger
	buf[13] = cmd.Condition
	buf[16] = cmd.PacketConf
	binary.LittleEndian.PutUint16(buf[18:20], cmd.PacketLen)
	binary.LittleEndian.PutUint32(buf[20:24], cmd.SyncWord)
	binary.LittleEndian.PutUint32(buf[24:28], cmd.PacketPointer)
}

func unmarshalHeader(buf []byte) CommandHeader {
	return CommandHeader{
		CommandNo:    binary.LittleEndian.Uint16(buf[0:2]),
		Status:       binary.LittleEndian.Uint16(buf[2:4]),
		PNextOp:      binary.LittleEndian.Uint32(buf[4:8]),
		StartTime:    binary.LittleEndian.Uint32(buf[8:12]),
		StartTrigger: buf[12],
		Condition:    buf[13],
	}
}

func marshalRx(buf []byte, cmd CommandRx) {
	binary.LittleEndian.PutUint16(buf[0:2], cmd.CommandNo)
	binary.LittleEndian.PutUint16(buf[2:4], cmd.Status)
	binary.LittleEndian.PutUint32(buf[4:8], cmd.PNextOp)
	binary.LittleEndian.PutUint32(buf[8:12], cmd.StartTime)
	buf[12] = cmd.StartTrigger
	buf[13] = cmd.Condition
	buf[16] = cmd.RxConfig
	buf[17] = cmd.MaxPacketLen
	buf[18] = cmd.Address0
	buf[19] = cmd.Address1
	binary.LittleEndian.PutUint32(buf[20:24], cmd.SyncWord)
	buf[24] = cmd.EndTrigger
	binary.LittleEndian.PutUint32(buf[28:32], cmd.EndTime)
	binary.LittleEndian.PutUint32(buf[32:36], cmd.PQueue)
	binary.LittleEndian.PutUint32(buf[36:40], cmd.POutput)
}

func marshalFS(buf []byte, cmd CommandFS) {
	binary.LittleEndian.PutUint16(buf[0:2], cmd.CommandNo)
	binary.LittleEndian.PutUint16(buf[2:4], cmd.Status)
	binary.LittleEndian.PutUint32(buf[4:8], cmd.PNextOp)
	binary.LittleEndian.PutUint32(buf[8:12], cmd.StartTime)
	buf[12] = cmd.StartTrigger
	buf[13] = cmd.Condition
	binary.LittleEndian.PutUint16(buf[16:18], cmd.Frequency)
	binary.LittleEndian.PutUint16(buf[18:20], cmd.FractFreq)
	buf[20] = cmd.SynthConf
}

// commandStatus reads back the status word the co-processor wrote into a
// command record — the only field the driver re-reads after SendOp, per
// spec.md's "status written asynchronously" lifecycle.
func commandStatus(buf []byte) Status {
	return Status(binary.LittleEndian.Uint16(buf[2:4]))
}
