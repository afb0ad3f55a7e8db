package engine

import (
	"database/sql"
	"strconv"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"
)

var integerTypes = map[string]bool{
	"INT": true, "INTEGER": true, "TINYINT": true, "SMALLINT": true, "MEDIUMINT": true, "BIGINT": true,
	"INT2": true, "INT4": true, "INT8": true, "YEAR": true,
	"UNSIGNED INT": true, "UNSIGNED TINYINT": true, "UNSIGNED SMALLINT": true, "UNSIGNED MEDIUMINT": true,
}

var floatTypes = map[string]bool{
	"FLOAT": true, "FLOAT4": true, "FLOAT8": true, "DOUBLE": true, "REAL": true,
}

var binaryTypes = map[string]bool{
	"BINARY": true, "VARBINARY": true, "BLOB": true, "TINYBLOB": true, "MEDIUMBLOB": true, "LONGBLOB": true,
	"BYTEA": true, "IMAGE": true, "RAW": true, "LONG RAW": true, "GEOMETRY": true,
}

// normalizeValue turns driver values into plain, JSON friendly Go values. Drivers return
// many textual types as []byte; those become int64, float64 or string by declared type.
// DECIMAL and NUMERIC stay strings to keep their exact digits.
func normalizeValue(v any, ct *sql.ColumnType) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}

	dbType := strings.ToUpper(ct.DatabaseTypeName())
	switch {
	case dbType == "UNIQUEIDENTIFIER":
		var u mssql.UniqueIdentifier
		if err := u.Scan(b); err == nil {
			return u.String()
		}
		return string(b)
	case binaryTypes[dbType]:
		return append([]byte(nil), b...)
	case integerTypes[dbType]:
		if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
			return n
		}
		if n, err := strconv.ParseUint(string(b), 10, 64); err == nil {
			return n
		}
	case floatTypes[dbType]:
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return f
		}
	}
	return string(b)
}

// uniqueColumnNames disambiguates repeated result columns as name, name_2, name_3.
func uniqueColumnNames(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	for i, name := range names {
		candidate := name
		for n := 2; used[candidate]; n++ {
			candidate = name + "_" + strconv.Itoa(n)
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}
