package export

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	mssql "github.com/denisenkom/go-mssqldb"
)

var (
	numericTypes = map[string]bool{"DECIMAL": true, "NUMERIC": true, "MONEY": true, "SMALLMONEY": true}
	binaryTypes  = map[string]bool{"BINARY": true, "VARBINARY": true, "IMAGE": true, "TIMESTAMP": true, "ROWVERSION": true}
)

// sqlLiteral renders a scanned value as a T-SQL literal. dbType is the column's
// DatabaseTypeName, which decides how raw bytes are read.
func sqlLiteral(v any, dbType string) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case time.Time:
		if strings.EqualFold(dbType, "DATETIMEOFFSET") {
			return quote(x.Format("2006-01-02T15:04:05.9999999-07:00"), false)
		}
		return quote(x.Format("2006-01-02T15:04:05.9999999"), false)
	case []byte:
		return bytesLiteral(x, strings.ToUpper(dbType))
	case string:
		return quote(x, true)
	default:
		return quote(fmt.Sprint(x), true)
	}
}

func bytesLiteral(b []byte, dbType string) string {
	switch {
	case dbType == "UNIQUEIDENTIFIER":
		var u mssql.UniqueIdentifier
		if err := u.Scan(b); err == nil {
			return quote(u.String(), false)
		}
	case numericTypes[dbType]:
		return string(b)
	case binaryTypes[dbType]:
		return "0x" + strings.ToUpper(hex.EncodeToString(b))
	}
	return quote(string(b), true)
}

func quote(s string, unicode bool) string {
	escaped := "'" + strings.ReplaceAll(s, "'", "''") + "'"
	if unicode {
		return "N" + escaped
	}
	return escaped
}
