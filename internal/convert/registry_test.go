package convert

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_BoolToBool(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{{Name: "active", Physical: PhysicalBool}},
		[]DestType{DestBool},
	)
	require.NoError(t, err)
	require.Len(t, fns, 1)

	v, err := fns[0](true)
	require.NoError(t, err)
	assert.Equal(t, SQLValue{Kind: KindBool, Bool: true}, v)

	v, err = fns[0](nil)
	require.NoError(t, err)
	assert.Equal(t, Null, v)
}

func TestBuild_BoolToText(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{{Name: "active", Physical: PhysicalBool}},
		[]DestType{DestVarchar},
	)
	require.NoError(t, err)

	v, err := fns[0](false)
	require.NoError(t, err)
	assert.Equal(t, SQLValue{Kind: KindText, Text: "false"}, v)
}

func TestBuild_Int16Widening(t *testing.T) {
	for _, dest := range []DestType{DestSmallInt, DestInt, DestBigInt} {
		fns, err := Build(
			[]SourceDescriptor{{Name: "x", Physical: PhysicalInt32, Logical: LogicalInt16}},
			[]DestType{dest},
		)
		require.NoError(t, err)

		v, err := fns[0](int32(42))
		require.NoError(t, err)
		switch dest {
		case DestSmallInt:
			assert.Equal(t, SQLValue{Kind: KindI16, I16: 42}, v)
		case DestInt:
			assert.Equal(t, SQLValue{Kind: KindI32, I32: 42}, v)
		case DestBigInt:
			assert.Equal(t, SQLValue{Kind: KindI64, I64: 42}, v)
		}
	}
}

func TestBuild_DateToDate(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{{Name: "d", Physical: PhysicalInt32, Logical: LogicalDate}},
		[]DestType{DestDate},
	)
	require.NoError(t, err)

	// 19716 days after 1970-01-01 is 2023-12-25
	v, err := fns[0](int32(19716))
	require.NoError(t, err)
	require.Equal(t, KindDate, v.Kind)
	assert.Equal(t, 2023, v.Year)
	assert.Equal(t, 12, v.Month)
	assert.Equal(t, 25, v.Day)
}

func TestBuild_DateToText(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{{Name: "d", Physical: PhysicalInt32, Logical: LogicalDate}},
		[]DestType{DestText},
	)
	require.NoError(t, err)

	v, err := fns[0](int32(0))
	require.NoError(t, err)
	assert.Equal(t, SQLValue{Kind: KindText, Text: "1970-01-01"}, v)
}

func TestBuild_UTF8ToVarchar(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{{Name: "model", Physical: PhysicalByteArray, Logical: LogicalUTF8}},
		[]DestType{DestVarchar},
	)
	require.NoError(t, err)

	v, err := fns[0]("Volvo 142E")
	require.NoError(t, err)
	assert.Equal(t, SQLValue{Kind: KindText, Text: "Volvo 142E"}, v)
}

func TestBuild_BytesToBytea(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{{Name: "blob", Physical: PhysicalByteArray}},
		[]DestType{DestBytea},
	)
	require.NoError(t, err)

	v, err := fns[0]([]byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, SQLValue{Kind: KindBytes, Bytes: []byte{0x01, 0x02}}, v)
}

func TestBuild_DecimalToNumeric(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{{Name: "price", Physical: PhysicalByteArray, Logical: LogicalDecimal, Scale: 2}},
		[]DestType{DestNumeric},
	)
	require.NoError(t, err)

	// 12345 scaled by 2 decimal places => "123.45"
	raw := big.NewInt(12345).Bytes()
	v, err := fns[0](raw)
	require.NoError(t, err)
	assert.Equal(t, SQLValue{Kind: KindText, Text: "123.45"}, v)
}

func TestBuild_DecimalToFloat8(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{{Name: "price", Physical: PhysicalByteArray, Logical: LogicalDecimal, Scale: 2}},
		[]DestType{DestFloat8},
	)
	require.NoError(t, err)

	raw := big.NewInt(12345).Bytes()
	v, err := fns[0](raw)
	require.NoError(t, err)
	require.Equal(t, KindF64, v.Kind)
	assert.InDelta(t, 123.45, v.F64, 0.0001)
}

func TestBuild_NegativeDecimal(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{{Name: "delta", Physical: PhysicalByteArray, Logical: LogicalDecimal, Scale: 1}},
		[]DestType{DestNumeric},
	)
	require.NoError(t, err)

	// -42 encoded as a 2-byte big-endian two's complement byte string
	n := big.NewInt(-42)
	raw := twosComplementBytes(n, 2)
	v, err := fns[0](raw)
	require.NoError(t, err)
	assert.Equal(t, SQLValue{Kind: KindText, Text: "-4.2"}, v)
}

func TestBuild_DoubleToFloat8(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{{Name: "mpg", Physical: PhysicalDouble}},
		[]DestType{DestFloat8},
	)
	require.NoError(t, err)

	v, err := fns[0](21.0)
	require.NoError(t, err)
	assert.Equal(t, SQLValue{Kind: KindF64, F64: 21.0}, v)

	v, err = fns[0](nil)
	require.NoError(t, err)
	assert.Equal(t, Null, v)
}

func TestBuild_FloatToFloat4(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{{Name: "ratio", Physical: PhysicalFloat}},
		[]DestType{DestFloat4},
	)
	require.NoError(t, err)

	v, err := fns[0](float32(3.5))
	require.NoError(t, err)
	assert.Equal(t, SQLValue{Kind: KindF32, F32: 3.5}, v)
}

func TestBuild_UnsupportedPairFailsFast(t *testing.T) {
	_, err := Build(
		[]SourceDescriptor{{Name: "weird", Physical: PhysicalBool}},
		[]DestType{DestBytea},
	)
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "weird", buildErr.Field)
}

func TestBuild_NullAlwaysNull(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{
			{Name: "a", Physical: PhysicalBool},
			{Name: "b", Physical: PhysicalInt32, Logical: LogicalDate},
			{Name: "c", Physical: PhysicalByteArray, Logical: LogicalUTF8},
		},
		[]DestType{DestBool, DestDate, DestVarchar},
	)
	require.NoError(t, err)

	for _, fn := range fns {
		v, err := fn(nil)
		require.NoError(t, err)
		assert.Equal(t, Null, v)
	}
}

func TestBuild_TextToTimestamp(t *testing.T) {
	fns, err := Build(
		[]SourceDescriptor{{Name: "ts", Physical: PhysicalByteArray, Logical: LogicalJSON}},
		[]DestType{DestTimestampTz},
	)
	require.NoError(t, err)

	v, err := fns[0]("2023-12-25 10:30:00")
	require.NoError(t, err)
	require.Equal(t, KindTimestamp, v.Kind)
	assert.Equal(t, 2023, v.Time.Year())
	assert.Equal(t, time.December, v.Time.Month())
}

// twosComplementBytes renders n as a minimal big-endian two's complement
// byte string of at least width bytes, matching what Parquet's DECIMAL
// encoding stores on disk.
func twosComplementBytes(n *big.Int, width int) []byte {
	if n.Sign() >= 0 {
		b := n.Bytes()
		for len(b) < width {
			b = append([]byte{0}, b...)
		}
		return b
	}
	full := new(big.Int).Lsh(big.NewInt(1), uint(8*width))
	biased := new(big.Int).Add(full, n)
	b := biased.Bytes()
	for len(b) < width {
		b = append([]byte{0}, b...)
	}
	return b
}
