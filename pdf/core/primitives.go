package core

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/finalversus/pdfimage/common"
)

// PdfObject is any value that can appear in a PDF object graph: a
// dictionary entry, an array element, or a top-level indirect object.
type PdfObject interface {
	String() string

	WriteString() string
}

type PdfObjectBool bool

type PdfObjectInteger int64

type PdfObjectFloat float64

type PdfObjectString struct {
	val   string
	isHex bool
}

type PdfObjectName string

type PdfObjectArray struct {
	vec []PdfObject
}

type PdfObjectDictionary struct {
	dict map[PdfObjectName]PdfObject
	keys []PdfObjectName
}

type PdfObjectNull struct{}

// Resolver dereferences an indirect reference into the object it points
// to. The cross-reference table that implements this is an external
// collaborator: this module only needs the ability to follow a
// reference, never to parse or rebuild the table itself.
type Resolver interface {
	Resolve(ref *PdfObjectReference) (PdfObject, error)
}

type PdfObjectReference struct {
	resolver         Resolver
	ObjectNumber     int64
	GenerationNumber int64
}

type PdfIndirectObject struct {
	PdfObjectReference
	PdfObject
}

// PdfObjectStream is a dictionary paired with the raw (still encoded)
// bytes that follow it in the file. Decoding those bytes is the job of
// the StreamEncoder selected by NewEncoderFromStream, not of the
// primitive itself.
type PdfObjectStream struct {
	PdfObjectReference
	*PdfObjectDictionary
	Stream []byte
}

func MakeDict() *PdfObjectDictionary {
	d := &PdfObjectDictionary{}
	d.dict = map[PdfObjectName]PdfObject{}
	d.keys = []PdfObjectName{}
	return d
}

func MakeName(s string) *PdfObjectName {
	name := PdfObjectName(s)
	return &name
}

func MakeInteger(val int64) *PdfObjectInteger {
	num := PdfObjectInteger(val)
	return &num
}

func MakeBool(val bool) *PdfObjectBool {
	bval := PdfObjectBool(val)
	return &bval
}

func MakeArray(objects ...PdfObject) *PdfObjectArray {
	array := &PdfObjectArray{}
	array.vec = append(array.vec, objects...)
	return array
}

func MakeArrayFromFloats(vals []float64) *PdfObjectArray {
	array := MakeArray()
	for _, val := range vals {
		array.Append(MakeFloat(val))
	}
	return array
}

func MakeFloat(val float64) *PdfObjectFloat {
	num := PdfObjectFloat(val)
	return &num
}

func MakeString(s string) *PdfObjectString {
	return &PdfObjectString{val: s}
}

func MakeHexString(s string) *PdfObjectString {
	return &PdfObjectString{val: s, isHex: true}
}

func MakeNull() *PdfObjectNull {
	return &PdfObjectNull{}
}

func NewReference(resolver Resolver, objNum, genNum int64) *PdfObjectReference {
	return &PdfObjectReference{resolver: resolver, ObjectNumber: objNum, GenerationNumber: genNum}
}

func (ref *PdfObjectReference) Resolve() PdfObject {
	if ref.resolver == nil {
		return MakeNull()
	}
	obj, err := ref.resolver.Resolve(ref)
	if err != nil {
		common.Log.Debug("ERROR resolving reference: %v - returning null object", err)
		return MakeNull()
	}
	if obj == nil {
		return MakeNull()
	}
	return obj
}

func (b *PdfObjectBool) String() string {
	if *b {
		return "true"
	}
	return "false"
}

func (b *PdfObjectBool) WriteString() string {
	return b.String()
}

func (i *PdfObjectInteger) String() string {
	return fmt.Sprintf("%d", *i)
}

func (i *PdfObjectInteger) WriteString() string {
	return strconv.FormatInt(int64(*i), 10)
}

func (f *PdfObjectFloat) String() string {
	return fmt.Sprintf("%f", *f)
}

func (f *PdfObjectFloat) WriteString() string {
	return strconv.FormatFloat(float64(*f), 'f', -1, 64)
}

func (str *PdfObjectString) String() string {
	return str.val
}

func (str *PdfObjectString) Str() string {
	return str.val
}

func (str *PdfObjectString) Bytes() []byte {
	return []byte(str.val)
}

func (str *PdfObjectString) WriteString() string {
	var output bytes.Buffer
	if str.isHex {
		output.WriteString("<")
		output.WriteString(hex.EncodeToString(str.Bytes()))
		output.WriteString(">")
		return output.String()
	}

	escapeSequences := map[byte]string{
		'\n': "\\n", '\r': "\\r", '\t': "\\t", '\b': "\\b", '\f': "\\f",
		'(': "\\(", ')': "\\)", '\\': "\\\\",
	}
	output.WriteString("(")
	for i := 0; i < len(str.val); i++ {
		if esc, ok := escapeSequences[str.val[i]]; ok {
			output.WriteString(esc)
		} else {
			output.WriteByte(str.val[i])
		}
	}
	output.WriteString(")")
	return output.String()
}

func (name *PdfObjectName) String() string {
	return string(*name)
}

func (name *PdfObjectName) WriteString() string {
	var output bytes.Buffer
	output.WriteString("/")
	for i := 0; i < len(*name); i++ {
		char := (*name)[i]
		if !IsPrintable(char) || char == '#' || IsDelimiter(char) {
			output.WriteString(fmt.Sprintf("#%.2x", char))
		} else {
			output.WriteByte(char)
		}
	}
	return output.String()
}

func (array *PdfObjectArray) Elements() []PdfObject {
	if array == nil {
		return nil
	}
	return array.vec
}

func (array *PdfObjectArray) Len() int {
	if array == nil {
		return 0
	}
	return len(array.vec)
}

func (array *PdfObjectArray) Get(i int) PdfObject {
	if array == nil || i >= len(array.vec) || i < 0 {
		return nil
	}
	return array.vec[i]
}

func (array *PdfObjectArray) Append(objects ...PdfObject) {
	if array == nil {
		common.Log.Debug("Warn - Attempt to append to a nil array")
		return
	}
	array.vec = append(array.vec, objects...)
}

func (array *PdfObjectArray) ToFloat64Array() ([]float64, error) {
	var vals []float64
	for _, obj := range array.Elements() {
		switch t := obj.(type) {
		case *PdfObjectInteger:
			vals = append(vals, float64(*t))
		case *PdfObjectFloat:
			vals = append(vals, float64(*t))
		default:
			return nil, ErrTypeError
		}
	}
	return vals, nil
}

func (array *PdfObjectArray) ToIntegerArray() ([]int, error) {
	var vals []int
	for _, obj := range array.Elements() {
		if number, is := obj.(*PdfObjectInteger); is {
			vals = append(vals, int(*number))
		} else {
			return nil, ErrTypeError
		}
	}
	return vals, nil
}

func (array *PdfObjectArray) String() string {
	var b strings.Builder
	b.WriteString("[")
	for ind, o := range array.Elements() {
		b.WriteString(o.String())
		if ind < array.Len()-1 {
			b.WriteString(", ")
		}
	}
	b.WriteString("]")
	return b.String()
}

func (array *PdfObjectArray) WriteString() string {
	var b strings.Builder
	b.WriteString("[")
	for ind, o := range array.Elements() {
		b.WriteString(o.WriteString())
		if ind < array.Len()-1 {
			b.WriteString(" ")
		}
	}
	b.WriteString("]")
	return b.String()
}

func GetNumberAsFloat(obj PdfObject) (float64, error) {
	switch t := obj.(type) {
	case *PdfObjectFloat:
		return float64(*t), nil
	case *PdfObjectInteger:
		return float64(*t), nil
	}
	return 0, ErrNotANumber
}

func GetNumbersAsFloat(objects []PdfObject) (floats []float64, err error) {
	for _, obj := range objects {
		val, err := GetNumberAsFloat(obj)
		if err != nil {
			return nil, err
		}
		floats = append(floats, val)
	}
	return floats, nil
}

func GetNumberAsInt64(obj PdfObject) (int64, error) {
	switch t := obj.(type) {
	case *PdfObjectFloat:
		common.Log.Debug("Number expected as integer was stored as float (type casting used)")
		return int64(*t), nil
	case *PdfObjectInteger:
		return int64(*t), nil
	}
	return 0, ErrNotANumber
}

func IsNullObject(obj PdfObject) bool {
	_, isNull := obj.(*PdfObjectNull)
	return isNull
}

func (d *PdfObjectDictionary) Merge(another *PdfObjectDictionary) {
	if another != nil {
		for _, key := range another.Keys() {
			d.Set(key, another.Get(key))
		}
	}
}

func (d *PdfObjectDictionary) String() string {
	var b strings.Builder
	b.WriteString("Dict(")
	for _, k := range d.keys {
		b.WriteString(`"` + k.String() + `": `)
		b.WriteString(d.dict[k].String())
		b.WriteString(`, `)
	}
	b.WriteString(")")
	return b.String()
}

func (d *PdfObjectDictionary) WriteString() string {
	var b strings.Builder
	b.WriteString("<<")
	for _, k := range d.keys {
		b.WriteString(k.WriteString())
		b.WriteString(" ")
		b.WriteString(d.dict[k].WriteString())
	}
	b.WriteString(">>")
	return b.String()
}

func (d *PdfObjectDictionary) Set(key PdfObjectName, val PdfObject) {
	if _, found := d.dict[key]; !found {
		d.keys = append(d.keys, key)
	}
	d.dict[key] = val
}

func (d *PdfObjectDictionary) Get(key PdfObjectName) PdfObject {
	val, has := d.dict[key]
	if !has {
		return nil
	}
	return val
}

func (d *PdfObjectDictionary) Keys() []PdfObjectName {
	if d == nil {
		return nil
	}
	return d.keys
}

const traceMaxDepth = 10

// TraceToDirectObject follows references and indirect-object wrappers
// until it reaches a concrete value. PDF dictionaries frequently point
// at their entries indirectly, so accessors below always trace first.
func TraceToDirectObject(obj PdfObject) PdfObject {
	if ref, isRef := obj.(*PdfObjectReference); isRef {
		obj = ref.Resolve()
	}

	iobj, isIndirectObj := obj.(*PdfIndirectObject)
	depth := 0
	for isIndirectObj {
		obj = iobj.PdfObject
		iobj, isIndirectObj = obj.(*PdfIndirectObject)
		depth++
		if depth > traceMaxDepth {
			common.Log.Error("ERROR: Trace depth level beyond %d - not going deeper!", traceMaxDepth)
			return nil
		}
	}
	return obj
}

func GetBoolVal(obj PdfObject) (b bool, found bool) {
	bo, found := TraceToDirectObject(obj).(*PdfObjectBool)
	if found {
		return bool(*bo), true
	}
	return false, false
}

func GetIntVal(obj PdfObject) (val int, found bool) {
	into, found := TraceToDirectObject(obj).(*PdfObjectInteger)
	if found && into != nil {
		return int(*into), true
	}
	return 0, false
}

func GetFloatVal(obj PdfObject) (val float64, found bool) {
	fo, found := TraceToDirectObject(obj).(*PdfObjectFloat)
	if found {
		return float64(*fo), true
	}
	return 0, false
}

func GetStringVal(obj PdfObject) (val string, found bool) {
	so, found := TraceToDirectObject(obj).(*PdfObjectString)
	if found {
		return so.Str(), true
	}
	return
}

func GetName(obj PdfObject) (name *PdfObjectName, found bool) {
	name, found = TraceToDirectObject(obj).(*PdfObjectName)
	return name, found
}

func GetNameVal(obj PdfObject) (val string, found bool) {
	name, found := TraceToDirectObject(obj).(*PdfObjectName)
	if found {
		return string(*name), true
	}
	return
}

func GetArray(obj PdfObject) (arr *PdfObjectArray, found bool) {
	arr, found = TraceToDirectObject(obj).(*PdfObjectArray)
	return arr, found
}

func GetDict(obj PdfObject) (dict *PdfObjectDictionary, found bool) {
	dict, found = TraceToDirectObject(obj).(*PdfObjectDictionary)
	return dict, found
}

func GetStream(obj PdfObject) (stream *PdfObjectStream, found bool) {
	stream, found = TraceToDirectObject(obj).(*PdfObjectStream)
	return stream, found
}

func (ref *PdfObjectReference) String() string {
	return fmt.Sprintf("Ref(%d %d)", ref.ObjectNumber, ref.GenerationNumber)
}

func (ref *PdfObjectReference) WriteString() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(ref.ObjectNumber, 10))
	b.WriteString(" ")
	b.WriteString(strconv.FormatInt(ref.GenerationNumber, 10))
	b.WriteString(" R")
	return b.String()
}

func (ind *PdfIndirectObject) String() string {
	return fmt.Sprintf("IObject:%d", ind.ObjectNumber)
}

func (ind *PdfIndirectObject) WriteString() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(ind.ObjectNumber, 10))
	b.WriteString(" 0 R")
	return b.String()
}

func (stream *PdfObjectStream) String() string {
	return fmt.Sprintf("Object stream %d: %s", stream.ObjectNumber, stream.PdfObjectDictionary)
}

func (stream *PdfObjectStream) WriteString() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(stream.ObjectNumber, 10))
	b.WriteString(" 0 R")
	return b.String()
}

func (null *PdfObjectNull) String() string {
	return "null"
}

func (null *PdfObjectNull) WriteString() string {
	return "null"
}

var (
	ErrTypeError                     = errors.New("type check error")
	ErrNotANumber                    = errors.New("not a number")
	ErrRangeError                    = errors.New("range check error")
	ErrNotSupported                  = errors.New("feature not supported")
	ErrUnsupportedEncodingParameters = errors.New("unsupported encoding parameters")
)
