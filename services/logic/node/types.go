// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package node

import (
	"fmt"
	"strings"
)

// NodeID identifies a node within one execution tree.
type NodeID uint64

// SocketIndex addresses a socket within a node's input or output list.
type SocketIndex uint32

// DataType is the runtime type tag carried by every socket.
//
// Two sockets may only be linked when their tags are equal.
type DataType uint8

const (
	// DataTypeInvalid is the zero value and never attached to a socket.
	DataTypeInvalid DataType = iota
	DataTypeBool
	DataTypeInt
	DataTypeUInt
	DataTypeFloat
	DataTypeString
	DataTypeVector3
	DataTypeQuaternion
)

// String returns the lowercase name of the data type.
func (d DataType) String() string {
	switch d {
	case DataTypeBool:
		return "bool"
	case DataTypeInt:
		return "int"
	case DataTypeUInt:
		return "uint"
	case DataTypeFloat:
		return "float"
	case DataTypeString:
		return "string"
	case DataTypeVector3:
		return "vector3"
	case DataTypeQuaternion:
		return "quaternion"
	default:
		return "invalid"
	}
}

// ParseDataType resolves a data type from its String form (case-insensitive).
func ParseDataType(s string) (DataType, error) {
	for _, dt := range DataTypes() {
		if strings.EqualFold(s, dt.String()) {
			return dt, nil
		}
	}
	return DataTypeInvalid, fmt.Errorf("%w: unknown data type %q", ErrInvalidDataType, s)
}

// DataTypes returns every supported data type in tag order.
func DataTypes() []DataType {
	return []DataType{
		DataTypeBool,
		DataTypeInt,
		DataTypeUInt,
		DataTypeFloat,
		DataTypeString,
		DataTypeVector3,
		DataTypeQuaternion,
	}
}

// Vector3 is a 3D vector value.
type Vector3 [3]float64

// Quaternion is a rotation value stored as (w, x, y, z).
type Quaternion [4]float64

// Value is the closed set of Go types a socket can carry.
type Value interface {
	bool | int64 | uint64 | float64 | string | Vector3 | Quaternion
}

// TypeOf returns the DataType tag for the Go type T.
func TypeOf[T Value]() DataType {
	var zero T
	switch any(zero).(type) {
	case bool:
		return DataTypeBool
	case int64:
		return DataTypeInt
	case uint64:
		return DataTypeUInt
	case float64:
		return DataTypeFloat
	case string:
		return DataTypeString
	case Vector3:
		return DataTypeVector3
	case Quaternion:
		return DataTypeQuaternion
	default:
		return DataTypeInvalid
	}
}
