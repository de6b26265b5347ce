package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 通用键值 JSON 字段
type JSON map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	return scanJSONColumn(value, j)
}

// StringArray 字符串数组（规则的角色、等级、商品过滤条件）
type StringArray []string

// Value 实现 driver.Valuer 接口
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	return scanJSONColumn(value, s)
}

// Contains 判断是否包含目标值
func (s StringArray) Contains(target string) bool {
	for _, item := range s {
		if item == target {
			return true
		}
	}
	return false
}

// UintArray 无符号整数数组（规则指定的发型师 ID）
type UintArray []uint

// Value 实现 driver.Valuer 接口
func (u UintArray) Value() (driver.Value, error) {
	if u == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan 实现 sql.Scanner 接口
func (u *UintArray) Scan(value interface{}) error {
	if value == nil {
		*u = UintArray{}
		return nil
	}
	return scanJSONColumn(value, u)
}

// Contains 判断是否包含目标 ID
func (u UintArray) Contains(target uint) bool {
	for _, item := range u {
		if item == target {
			return true
		}
	}
	return false
}

func scanJSONColumn(value interface{}, target interface{}) error {
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, target)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), target)
	default:
		return fmt.Errorf("unsupported json column type %T", value)
	}
}
