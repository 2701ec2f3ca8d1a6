package xsqlda

// SQL type codes. The low bit of a type code on the wire is the nullable flag.
const (
	SQLText      int16 = 452
	SQLVarying   int16 = 448
	SQLShort     int16 = 500
	SQLLong      int16 = 496
	SQLFloat     int16 = 482
	SQLDouble    int16 = 480
	SQLDFloat    int16 = 530
	SQLTimestamp int16 = 510
	SQLBlob      int16 = 520
	SQLArray     int16 = 540
	SQLQuad      int16 = 550
	SQLTypeTime  int16 = 560
	SQLTypeDate  int16 = 570
	SQLInt64     int16 = 580
	SQLBoolean   int16 = 32764
	SQLNull      int16 = 32766
)

const (
	// Version1 is the only XSQLDA format version understood by the client.
	Version1 int16 = 1

	// MaxNameLength is the width of each name field in an XSQLVAR.
	MaxNameLength = 32

	// Dialect3 is the SQL dialect passed to DSQL calls.
	Dialect3 = 3
)

// Null indicator values.
const (
	IndNotNull int16 = 0
	IndNull    int16 = -1
)

// BaseType strips the nullable flag from a type code.
func BaseType(t int16) int16 {
	return t &^ 1
}

// Nullable reports whether the type code carries the nullable flag.
func Nullable(t int16) bool {
	return t&1 != 0
}

// IsVarying reports whether values of type t carry a 2-byte length prefix.
func IsVarying(t int16) bool {
	return BaseType(t) == SQLVarying
}

// IsText reports whether values of type t are space-padded fixed text.
func IsText(t int16) bool {
	return BaseType(t) == SQLText
}

// BufferSize returns the value buffer size for a column of type t and
// declared length n.
func BufferSize(t, n int16) int {
	if n < 0 {
		n = 0
	}
	if IsVarying(t) {
		return int(n) + 3
	}
	return int(n) + 1
}

// TypeName returns a short name for t, ignoring the nullable flag.
func TypeName(t int16) string {
	switch BaseType(t) {
	case SQLText:
		return "TEXT"
	case SQLVarying:
		return "VARYING"
	case SQLShort:
		return "SHORT"
	case SQLLong:
		return "LONG"
	case SQLFloat:
		return "FLOAT"
	case SQLDouble:
		return "DOUBLE"
	case SQLDFloat:
		return "D_FLOAT"
	case SQLTimestamp:
		return "TIMESTAMP"
	case SQLBlob:
		return "BLOB"
	case SQLArray:
		return "ARRAY"
	case SQLQuad:
		return "QUAD"
	case SQLTypeTime:
		return "TIME"
	case SQLTypeDate:
		return "DATE"
	case SQLInt64:
		return "INT64"
	case SQLBoolean:
		return "BOOLEAN"
	case SQLNull:
		return "NULL"
	default:
		return "UNKNOWN"
	}
}
