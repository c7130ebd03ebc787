package nbt

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"reflect"
)

const (
	tagEnd = iota
	tagByte
	tagShort
	tagInt
	tagLong
	tagFloat
	tagDouble
	tagByteArray
	tagString
	tagList
	tagCompound
	tagIntArray
	tagLongArray
)

// Payload sizes of the fixed width tags
var scalarSizes = map[byte]int64{
	tagByte:   1,
	tagShort:  2,
	tagInt:    4,
	tagLong:   8,
	tagFloat:  4,
	tagDouble: 8,
}

// Element sizes of the length-prefixed array tags
var arrayElementSizes = map[byte]int64{
	tagByteArray: 1,
	tagIntArray:  4,
	tagLongArray: 8,
}

// Source of NBT data. Satisfied by *bufio.Reader and *bytes.Reader.
type Reader interface {
	io.Reader
	io.ByteReader
}

// Tag a Go type is stored as. Structs map to compounds and []uint64 to long
// arrays, which is how packed bit storages travel.
func tagOf(ty reflect.Type) (byte, error) {
	switch ty.Kind() {
	case reflect.Int32:
		return tagInt, nil
	case reflect.Int64:
		return tagLong, nil
	case reflect.String:
		return tagString, nil
	case reflect.Struct:
		return tagCompound, nil
	case reflect.Slice:
		switch ty.Elem().Kind() {
		case reflect.Uint8:
			return tagByteArray, nil
		case reflect.Int32:
			return tagIntArray, nil
		case reflect.Int64, reflect.Uint64:
			return tagLongArray, nil
		}
	}
	return 0, fmt.Errorf("cannot represent %s in NBT", ty)
}

// Name of a struct field inside a compound. The `nbt` tag overrides the Go
// field name, which allows keys such as MOTION_BLOCKING.
func fieldName(field reflect.StructField) string {
	if name := field.Tag.Get("nbt"); name != "" {
		return name
	}
	return field.Name
}

// Exported fields of a struct type, keyed by compound key
func fieldsOf(ty reflect.Type) map[string]int {
	fields := make(map[string]int, ty.NumField())
	for i := 0; i < ty.NumField(); i++ {
		if field := ty.Field(i); field.IsExported() {
			fields[fieldName(field)] = i
		}
	}
	return fields
}

// Decodes a named root compound into the struct pointed to by v. Keys without
// a matching field are skipped, but every field must be present.
func Unmarshal(reader Reader, v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must point to a struct, got %T", v)
	}

	if tag, err := reader.ReadByte(); err != nil {
		return err
	} else if tag != tagCompound {
		return fmt.Errorf("expected root tag to be compound (%d), but got %d", tagCompound, tag)
	}

	if _, err := readString(reader); err != nil {
		return err
	}

	return readCompound(reader, val.Elem())
}

func readString(reader io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return "", err
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(reader, data); err != nil {
		return "", err
	}
	return string(data), nil
}

func readLength(reader io.Reader) (int, error) {
	var length int32
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return 0, err
	}
	if length < 0 {
		return 0, fmt.Errorf("negative length %d", length)
	}
	return int(length), nil
}

// Reads compound entries up to the end tag. An invalid v skips the compound.
func readCompound(reader Reader, v reflect.Value) error {
	var fields map[string]int
	if v.IsValid() {
		fields = fieldsOf(v.Type())
	}
	found := 0

	for {
		tag, err := reader.ReadByte()
		if err != nil {
			return err
		}
		if tag == tagEnd {
			break
		}

		key, err := readString(reader)
		if err != nil {
			return err
		}

		i, ok := fields[key]
		if !ok {
			if err := skip(tag, reader); err != nil {
				return fmt.Errorf("in field %s: %w", key, err)
			}
			continue
		}

		if err := readValue(tag, reader, v.Field(i)); err != nil {
			return fmt.Errorf("in field %s: %w", key, err)
		}
		found++
	}

	if found < len(fields) {
		return fmt.Errorf("struct %s has %d fields but NBT compound only had %d", v.Type(), len(fields), found)
	}
	return nil
}

func readValue(tag byte, reader Reader, field reflect.Value) error {
	want, err := tagOf(field.Type())
	if err != nil {
		return err
	}
	if tag != want {
		return fmt.Errorf("cannot assign tag %d to %s", tag, field.Type())
	}

	switch tag {
	case tagString:
		str, err := readString(reader)
		if err != nil {
			return err
		}
		field.SetString(str)
		return nil

	case tagCompound:
		return readCompound(reader, field)

	case tagByteArray, tagIntArray, tagLongArray:
		length, err := readLength(reader)
		if err != nil {
			return err
		}
		arr := reflect.MakeSlice(field.Type(), length, length)
		if err := binary.Read(reader, binary.BigEndian, arr.Interface()); err != nil {
			return err
		}
		field.Set(arr)
		return nil
	}

	return binary.Read(reader, binary.BigEndian, field.Addr().Interface())
}

func discard(reader io.Reader, n int64) error {
	_, err := io.CopyN(io.Discard, reader, n)
	return err
}

// Consumes the payload of a tag without decoding it
func skip(tag byte, reader Reader) error {
	if size, ok := scalarSizes[tag]; ok {
		return discard(reader, size)
	}

	if size, ok := arrayElementSizes[tag]; ok {
		length, err := readLength(reader)
		if err != nil {
			return err
		}
		return discard(reader, int64(length)*size)
	}

	switch tag {
	case tagString:
		_, err := readString(reader)
		return err

	case tagList:
		elem, err := reader.ReadByte()
		if err != nil {
			return err
		}
		length, err := readLength(reader)
		if err != nil {
			return err
		}
		for i := 0; i < length; i++ {
			if err := skip(elem, reader); err != nil {
				return err
			}
		}
		return nil

	case tagCompound:
		return readCompound(reader, reflect.Value{})
	}

	return fmt.Errorf("unsupported NBT tag %d", tag)
}

// Encodes the struct v as a root compound with the given name. Network
// payloads before 1.20.2 use the empty name.
func Marshal(v any, tagName string, w io.Writer) error {
	val := reflect.Indirect(reflect.ValueOf(v))
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("tried to marshal %T as a compound", v)
	}

	if err := writeHeader(w, tagCompound, tagName); err != nil {
		return err
	}
	return writeCompound(w, val)
}

func writeString(w io.Writer, val string) error {
	if len(val) > math.MaxUint16 {
		return fmt.Errorf("string length %d exceeds maximum %d", len(val), math.MaxUint16)
	}

	if err := binary.Write(w, binary.BigEndian, uint16(len(val))); err != nil {
		return err
	}
	_, err := io.WriteString(w, val)
	return err
}

func writeHeader(w io.Writer, tag byte, name string) error {
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	return writeString(w, name)
}

func writeCompound(w io.Writer, v reflect.Value) error {
	ty := v.Type()
	for i := 0; i < ty.NumField(); i++ {
		field := ty.Field(i)
		if !field.IsExported() {
			continue
		}

		name := fieldName(field)
		tag, err := tagOf(field.Type)
		if err != nil {
			return fmt.Errorf("in field %s: %w", name, err)
		}

		if err := writeHeader(w, tag, name); err != nil {
			return err
		}
		if err := writeValue(w, tag, v.Field(i)); err != nil {
			return fmt.Errorf("in field %s: %w", name, err)
		}
	}

	_, err := w.Write([]byte{tagEnd})
	return err
}

func writeValue(w io.Writer, tag byte, v reflect.Value) error {
	switch tag {
	case tagString:
		return writeString(w, v.String())

	case tagCompound:
		return writeCompound(w, v)

	case tagByteArray, tagIntArray, tagLongArray:
		if v.Len() > math.MaxInt32 {
			return fmt.Errorf("array length %d exceeds maximum %d", v.Len(), math.MaxInt32)
		}
		if err := binary.Write(w, binary.BigEndian, int32(v.Len())); err != nil {
			return err
		}
		return binary.Write(w, binary.BigEndian, v.Interface())
	}

	return binary.Write(w, binary.BigEndian, v.Interface())
}
