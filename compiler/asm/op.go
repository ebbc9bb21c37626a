package asm

import "strconv"

// Op is a JVM opcode.
type Op uint8

const (
	NOP         Op = 0x00
	ACONST_NULL Op = 0x01
	ICONST_M1   Op = 0x02
	ICONST_0    Op = 0x03
	ICONST_1    Op = 0x04
	ICONST_2    Op = 0x05
	ICONST_3    Op = 0x06
	ICONST_4    Op = 0x07
	ICONST_5    Op = 0x08
	LCONST_0    Op = 0x09
	LCONST_1    Op = 0x0a
	FCONST_0    Op = 0x0b
	FCONST_1    Op = 0x0c
	FCONST_2    Op = 0x0d
	DCONST_0    Op = 0x0e
	DCONST_1    Op = 0x0f
	BIPUSH      Op = 0x10
	SIPUSH      Op = 0x11
	LDC         Op = 0x12
	LDC_W       Op = 0x13
	LDC2_W      Op = 0x14

	ILOAD   Op = 0x15
	LLOAD   Op = 0x16
	FLOAD   Op = 0x17
	DLOAD   Op = 0x18
	ALOAD   Op = 0x19
	ILOAD_0 Op = 0x1a
	LLOAD_0 Op = 0x1e
	FLOAD_0 Op = 0x22
	DLOAD_0 Op = 0x26
	ALOAD_0 Op = 0x2a

	ISTORE   Op = 0x36
	LSTORE   Op = 0x37
	FSTORE   Op = 0x38
	DSTORE   Op = 0x39
	ASTORE   Op = 0x3a
	ISTORE_0 Op = 0x3b
	LSTORE_0 Op = 0x3f
	FSTORE_0 Op = 0x43
	DSTORE_0 Op = 0x47
	ASTORE_0 Op = 0x4b

	POP     Op = 0x57
	POP2    Op = 0x58
	DUP     Op = 0x59
	DUP_X1  Op = 0x5a
	DUP_X2  Op = 0x5b
	DUP2    Op = 0x5c
	DUP2_X1 Op = 0x5d
	DUP2_X2 Op = 0x5e
	SWAP    Op = 0x5f

	IADD Op = 0x60
	LADD Op = 0x61
	FADD Op = 0x62
	DADD Op = 0x63
	ISUB Op = 0x64
	LSUB Op = 0x65
	FSUB Op = 0x66
	DSUB Op = 0x67
	IMUL Op = 0x68
	LMUL Op = 0x69
	FMUL Op = 0x6a
	DMUL Op = 0x6b
	IDIV Op = 0x6c
	LDIV Op = 0x6d
	FDIV Op = 0x6e
	DDIV Op = 0x6f
	IREM Op = 0x70
	LREM Op = 0x71
	FREM Op = 0x72
	DREM Op = 0x73
	INEG Op = 0x74
	LNEG Op = 0x75
	FNEG Op = 0x76
	DNEG Op = 0x77
	IXOR Op = 0x82
	LXOR Op = 0x83
	IINC Op = 0x84

	I2L Op = 0x85
	I2F Op = 0x86
	I2D Op = 0x87
	L2I Op = 0x88
	L2F Op = 0x89
	L2D Op = 0x8a
	F2I Op = 0x8b
	F2L Op = 0x8c
	F2D Op = 0x8d
	D2I Op = 0x8e
	D2L Op = 0x8f
	D2F Op = 0x90
	I2B Op = 0x91
	I2C Op = 0x92
	I2S Op = 0x93

	LCMP  Op = 0x94
	FCMPL Op = 0x95
	FCMPG Op = 0x96
	DCMPL Op = 0x97
	DCMPG Op = 0x98

	IFEQ      Op = 0x99
	IFNE      Op = 0x9a
	IFLT      Op = 0x9b
	IFGE      Op = 0x9c
	IFGT      Op = 0x9d
	IFLE      Op = 0x9e
	IF_ICMPEQ Op = 0x9f
	IF_ICMPNE Op = 0xa0
	IF_ICMPLT Op = 0xa1
	IF_ICMPGE Op = 0xa2
	IF_ICMPGT Op = 0xa3
	IF_ICMPLE Op = 0xa4
	IF_ACMPEQ Op = 0xa5
	IF_ACMPNE Op = 0xa6
	GOTO      Op = 0xa7

	IRETURN Op = 0xac
	LRETURN Op = 0xad
	FRETURN Op = 0xae
	DRETURN Op = 0xaf
	ARETURN Op = 0xb0
	RETURN  Op = 0xb1

	GETSTATIC       Op = 0xb2
	PUTSTATIC       Op = 0xb3
	GETFIELD        Op = 0xb4
	PUTFIELD        Op = 0xb5
	INVOKEVIRTUAL   Op = 0xb6
	INVOKESPECIAL   Op = 0xb7
	INVOKESTATIC    Op = 0xb8
	INVOKEINTERFACE Op = 0xb9
	NEW             Op = 0xbb
	ATHROW          Op = 0xbf
	CHECKCAST       Op = 0xc0
	INSTANCEOF      Op = 0xc1
	WIDE            Op = 0xc4
	IFNULL          Op = 0xc6
	IFNONNULL       Op = 0xc7
)

type opInfo struct {
	name string
	pop  int8
	push int8
}

// ops holds names and fixed stack effects.
// Ops with operand dependent effects have them computed on emit.
var ops = map[Op]opInfo{
	NOP:         {"nop", 0, 0},
	ACONST_NULL: {"aconst_null", 0, 1},
	ICONST_M1:   {"iconst_m1", 0, 1},
	ICONST_0:    {"iconst_0", 0, 1},
	ICONST_1:    {"iconst_1", 0, 1},
	ICONST_2:    {"iconst_2", 0, 1},
	ICONST_3:    {"iconst_3", 0, 1},
	ICONST_4:    {"iconst_4", 0, 1},
	ICONST_5:    {"iconst_5", 0, 1},
	LCONST_0:    {"lconst_0", 0, 2},
	LCONST_1:    {"lconst_1", 0, 2},
	FCONST_0:    {"fconst_0", 0, 1},
	FCONST_1:    {"fconst_1", 0, 1},
	FCONST_2:    {"fconst_2", 0, 1},
	DCONST_0:    {"dconst_0", 0, 2},
	DCONST_1:    {"dconst_1", 0, 2},
	BIPUSH:      {"bipush", 0, 1},
	SIPUSH:      {"sipush", 0, 1},
	LDC:         {"ldc", 0, 1},
	LDC_W:       {"ldc_w", 0, 1},
	LDC2_W:      {"ldc2_w", 0, 2},

	ILOAD: {"iload", 0, 1},
	LLOAD: {"lload", 0, 2},
	FLOAD: {"fload", 0, 1},
	DLOAD: {"dload", 0, 2},
	ALOAD: {"aload", 0, 1},

	ISTORE: {"istore", 1, 0},
	LSTORE: {"lstore", 2, 0},
	FSTORE: {"fstore", 1, 0},
	DSTORE: {"dstore", 2, 0},
	ASTORE: {"astore", 1, 0},

	POP:     {"pop", 1, 0},
	POP2:    {"pop2", 2, 0},
	DUP:     {"dup", 1, 2},
	DUP_X1:  {"dup_x1", 2, 3},
	DUP_X2:  {"dup_x2", 3, 4},
	DUP2:    {"dup2", 2, 4},
	DUP2_X1: {"dup2_x1", 3, 5},
	DUP2_X2: {"dup2_x2", 4, 6},
	SWAP:    {"swap", 2, 2},

	IADD: {"iadd", 2, 1},
	LADD: {"ladd", 4, 2},
	FADD: {"fadd", 2, 1},
	DADD: {"dadd", 4, 2},
	ISUB: {"isub", 2, 1},
	LSUB: {"lsub", 4, 2},
	FSUB: {"fsub", 2, 1},
	DSUB: {"dsub", 4, 2},
	IMUL: {"imul", 2, 1},
	LMUL: {"lmul", 4, 2},
	FMUL: {"fmul", 2, 1},
	DMUL: {"dmul", 4, 2},
	IDIV: {"idiv", 2, 1},
	LDIV: {"ldiv", 4, 2},
	FDIV: {"fdiv", 2, 1},
	DDIV: {"ddiv", 4, 2},
	IREM: {"irem", 2, 1},
	LREM: {"lrem", 4, 2},
	FREM: {"frem", 2, 1},
	DREM: {"drem", 4, 2},
	INEG: {"ineg", 1, 1},
	LNEG: {"lneg", 2, 2},
	FNEG: {"fneg", 1, 1},
	DNEG: {"dneg", 2, 2},
	IXOR: {"ixor", 2, 1},
	LXOR: {"lxor", 4, 2},
	IINC: {"iinc", 0, 0},

	I2L: {"i2l", 1, 2},
	I2F: {"i2f", 1, 1},
	I2D: {"i2d", 1, 2},
	L2I: {"l2i", 2, 1},
	L2F: {"l2f", 2, 1},
	L2D: {"l2d", 2, 2},
	F2I: {"f2i", 1, 1},
	F2L: {"f2l", 1, 2},
	F2D: {"f2d", 1, 2},
	D2I: {"d2i", 2, 1},
	D2L: {"d2l", 2, 2},
	D2F: {"d2f", 2, 1},
	I2B: {"i2b", 1, 1},
	I2C: {"i2c", 1, 1},
	I2S: {"i2s", 1, 1},

	LCMP:  {"lcmp", 4, 1},
	FCMPL: {"fcmpl", 2, 1},
	FCMPG: {"fcmpg", 2, 1},
	DCMPL: {"dcmpl", 4, 1},
	DCMPG: {"dcmpg", 4, 1},

	IFEQ:      {"ifeq", 1, 0},
	IFNE:      {"ifne", 1, 0},
	IFLT:      {"iflt", 1, 0},
	IFGE:      {"ifge", 1, 0},
	IFGT:      {"ifgt", 1, 0},
	IFLE:      {"ifle", 1, 0},
	IF_ICMPEQ: {"if_icmpeq", 2, 0},
	IF_ICMPNE: {"if_icmpne", 2, 0},
	IF_ICMPLT: {"if_icmplt", 2, 0},
	IF_ICMPGE: {"if_icmpge", 2, 0},
	IF_ICMPGT: {"if_icmpgt", 2, 0},
	IF_ICMPLE: {"if_icmple", 2, 0},
	IF_ACMPEQ: {"if_acmpeq", 2, 0},
	IF_ACMPNE: {"if_acmpne", 2, 0},
	GOTO:      {"goto", 0, 0},

	IRETURN: {"ireturn", 1, 0},
	LRETURN: {"lreturn", 2, 0},
	FRETURN: {"freturn", 1, 0},
	DRETURN: {"dreturn", 2, 0},
	ARETURN: {"areturn", 1, 0},
	RETURN:  {"return", 0, 0},

	GETSTATIC:       {"getstatic", 0, 0},
	PUTSTATIC:       {"putstatic", 0, 0},
	GETFIELD:        {"getfield", 0, 0},
	PUTFIELD:        {"putfield", 0, 0},
	INVOKEVIRTUAL:   {"invokevirtual", 0, 0},
	INVOKESPECIAL:   {"invokespecial", 0, 0},
	INVOKESTATIC:    {"invokestatic", 0, 0},
	INVOKEINTERFACE: {"invokeinterface", 0, 0},
	NEW:             {"new", 0, 1},
	ATHROW:          {"athrow", 1, 0},
	CHECKCAST:       {"checkcast", 1, 1},
	INSTANCEOF:      {"instanceof", 1, 1},
	IFNULL:          {"ifnull", 1, 0},
	IFNONNULL:       {"ifnonnull", 1, 0},
}

func (op Op) String() string {
	if i, ok := ops[op]; ok {
		return i.name
	}

	return "op(" + strconv.Itoa(int(op)) + ")"
}

// IsJump reports conditional and unconditional branches.
func (op Op) IsJump() bool {
	return op >= IFEQ && op <= GOTO || op == IFNULL || op == IFNONNULL
}

// Terminal reports instructions after which control does not fall through.
func (op Op) Terminal() bool {
	return op == GOTO || op == ATHROW || op >= IRETURN && op <= RETURN
}

// Negate returns the conditional jump with the opposite condition.
func (op Op) Negate() Op {
	switch {
	case op >= IFEQ && op <= IF_ACMPNE:
		// opcodes go in pairs: eq/ne, lt/ge, gt/le
		if (op-IFEQ)%2 == 0 {
			return op + 1
		}

		return op - 1
	case op == IFNULL:
		return IFNONNULL
	case op == IFNONNULL:
		return IFNULL
	}

	return op
}

func (op Op) isRef() bool {
	return op >= GETSTATIC && op <= INVOKEINTERFACE
}
