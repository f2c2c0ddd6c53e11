package codec

// PostgreSQL wire type OIDs covered by the codec. These are the server's
// pg_type identifiers; any OID outside this set is unsupported and decoding
// it is a hard error.
const (
	OIDBool        uint32 = 16
	OIDBytea       uint32 = 17
	OIDChar        uint32 = 18
	OIDName        uint32 = 19
	OIDInt8        uint32 = 20
	OIDInt2        uint32 = 21
	OIDInt4        uint32 = 23
	OIDText        uint32 = 25
	OIDJSON        uint32 = 114
	OIDFloat4      uint32 = 700
	OIDFloat8      uint32 = 701
	OIDBpchar      uint32 = 1042
	OIDVarchar     uint32 = 1043
	OIDDate        uint32 = 1082
	OIDTime        uint32 = 1083
	OIDTimestamp   uint32 = 1114
	OIDTimestampTZ uint32 = 1184
	OIDTimeTZ      uint32 = 1266
	OIDUUID        uint32 = 2950
	OIDJSONB       uint32 = 3802
)

// oidTags is the fixed OID -> TypeTag table. Every entry maps to exactly
// one tag; timetz collapses onto the time tag after offset parsing.
var oidTags = map[uint32]TypeTag{
	OIDBool:        TagBool,
	OIDBytea:       TagBytes,
	OIDChar:        TagChar,
	OIDName:        TagText,
	OIDInt8:        TagInt64,
	OIDInt2:        TagInt16,
	OIDInt4:        TagInt32,
	OIDText:        TagText,
	OIDJSON:        TagJSON,
	OIDFloat4:      TagFloat32,
	OIDFloat8:      TagFloat64,
	OIDBpchar:      TagText,
	OIDVarchar:     TagText,
	OIDDate:        TagDate,
	OIDTime:        TagTime,
	OIDTimestamp:   TagTimestamp,
	OIDTimestampTZ: TagTimestampTZ,
	OIDTimeTZ:      TagTime,
	OIDUUID:        TagUUID,
	OIDJSONB:       TagJSON,
}

// TagForOID returns the TypeTag a wire OID decodes to.
func TagForOID(oid uint32) (TypeTag, bool) {
	tag, ok := oidTags[oid]
	return tag, ok
}

// Supported reports whether the codec can decode the given wire OID.
func Supported(oid uint32) bool {
	_, ok := oidTags[oid]
	return ok
}
