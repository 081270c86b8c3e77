package scval

import (
	"encoding/hex"
	"fmt"

	"github.com/stellar/go/xdr"
)

// Render converts an ScVal to plain Go values for JSON output
func Render(val xdr.ScVal) interface{} {
	switch val.Type {
	case xdr.ScValTypeScvBool:
		return val.MustB()
	case xdr.ScValTypeScvVoid:
		return nil
	case xdr.ScValTypeScvU32:
		return uint32(val.MustU32())
	case xdr.ScValTypeScvI32:
		return int32(val.MustI32())
	case xdr.ScValTypeScvU64:
		return uint64(val.MustU64())
	case xdr.ScValTypeScvI64:
		return int64(val.MustI64())
	case xdr.ScValTypeScvI128:
		// Rendered as a decimal string, JSON numbers lose precision past 2^53
		return i128ToBig(val.MustI128()).String()
	case xdr.ScValTypeScvSymbol:
		return string(val.MustSym())
	case xdr.ScValTypeScvString:
		return string(val.MustStr())
	case xdr.ScValTypeScvAddress:
		str, err := val.MustAddress().String()
		if err != nil {
			return fmt.Sprintf("<invalid address: %v>", err)
		}
		return str
	case xdr.ScValTypeScvBytes:
		return hex.EncodeToString(val.MustBytes())
	case xdr.ScValTypeScvVec:
		vec := val.MustVec()
		if vec == nil {
			return []interface{}{}
		}
		result := make([]interface{}, len(*vec))
		for i, element := range *vec {
			result[i] = Render(element)
		}
		return result
	case xdr.ScValTypeScvMap:
		scMap := val.MustMap()
		if scMap == nil {
			return map[string]interface{}{}
		}
		result := make(map[string]interface{}, len(*scMap))
		for _, entry := range *scMap {
			result[Label(entry.Key)] = Render(entry.Val)
		}
		return result
	default:
		return val.Type.String()
	}
}

// Label returns a short string form of val, used for map keys and log fields
func Label(val xdr.ScVal) string {
	switch val.Type {
	case xdr.ScValTypeScvBool:
		if val.MustB() {
			return "true"
		}
		return "false"
	case xdr.ScValTypeScvU32:
		return fmt.Sprintf("%d", val.MustU32())
	case xdr.ScValTypeScvU64:
		return fmt.Sprintf("%d", val.MustU64())
	case xdr.ScValTypeScvSymbol:
		return string(val.MustSym())
	case xdr.ScValTypeScvString:
		return string(val.MustStr())
	case xdr.ScValTypeScvAddress:
		str, _ := val.MustAddress().String()
		return str
	case xdr.ScValTypeScvVec:
		// Enum keys such as StudentProfile(G...) render as "StudentProfile/G..."
		vec := val.MustVec()
		if vec == nil {
			return ""
		}
		label := ""
		for i, element := range *vec {
			if i > 0 {
				label += "/"
			}
			label += Label(element)
		}
		return label
	default:
		return fmt.Sprintf("<%s>", val.Type.String())
	}
}
