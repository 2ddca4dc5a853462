package packet

// Client → server opcodes.
const (
	C_OPCODE_LOGIN  byte = 0x01 // name, password
	C_OPCODE_ENTER  byte = 0x02 // enter the world after login
	C_OPCODE_MOVE   byte = 0x03 // position + facing update
	C_OPCODE_ACTION byte = 0x04 // action request on the current target
	C_OPCODE_QUIT   byte = 0x05
)

// Server → client opcodes.
const (
	S_OPCODE_LOGINRESULT  byte = 0x81
	S_OPCODE_ENTERWORLD   byte = 0x82 // participant id, balance, spawn position
	S_OPCODE_PROMPT       byte = 0x83 // target acquired: key, name, action costs
	S_OPCODE_PROMPTCLEAR  byte = 0x84 // target lost: key, reason
	S_OPCODE_ACTIONRESULT byte = 0x85
	S_OPCODE_OBJECT       byte = 0x86 // placement spawn or update
	S_OPCODE_OBJECTREMOVE byte = 0x87
	S_OPCODE_DISCONNECT   byte = 0x88
)
