package models

import (
	"database/sql/driver"
	"encoding/json"
)

// JSON 通用 JSON 对象类型
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	data, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner 接口，兼容 sqlite 返回 string 与 postgres 返回 []byte
func (j *JSON) Scan(value interface{}) error {
	switch typed := value.(type) {
	case nil:
		*j = make(JSON)
		return nil
	case []byte:
		return json.Unmarshal(typed, j)
	case string:
		return json.Unmarshal([]byte(typed), j)
	default:
		return nil
	}
}
