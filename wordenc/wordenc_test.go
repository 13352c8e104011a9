package wordenc

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func literals(data []byte, order ByteOrder) []string {
	var out []string
	for w := range Words(data, order) {
		out = append(out, w.Literal())
	}
	return out
}

func TestWords(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}

	t.Run("little", func(t *testing.T) {
		assert.Equal(t, []string{"32'h04030201", "32'h00000605"}, literals(data, LittleEndian))
	})
	t.Run("big", func(t *testing.T) {
		assert.Equal(t, []string{"32'h01020304", "32'h05060000"}, literals(data, BigEndian))
	})
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, literals(nil, LittleEndian))
	})
	t.Run("indexes", func(t *testing.T) {
		var idx []int
		for w := range Words(make([]byte, 13), LittleEndian) {
			idx = append(idx, w.Index)
		}
		assert.Equal(t, []int{0, 1, 2, 3}, idx)
	})
}

func TestWordsRestartable(t *testing.T) {
	seq := Words([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01}, LittleEndian)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestWordsStopEarly(t *testing.T) {
	n := 0
	for range Words(make([]byte, 64), BigEndian) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestRoundTrip(t *testing.T) {
	for _, order := range []ByteOrder{LittleEndian, BigEndian} {
		for n := 0; n <= 17; n++ {
			data := make([]byte, n)
			for i := range data {
				data[i] = byte(i*37 + 11)
			}

			var values []uint32
			for _, lit := range literals(data, order) {
				v, err := ParseLiteral(lit)
				require.NoError(t, err)
				values = append(values, v)
			}

			assert.Equal(t, data, Decode(values, order, n), "order=%s n=%d", order, n)
		}
	}
}

func TestCountAlignUp(t *testing.T) {
	assert.Equal(t, 0, Count(0))
	assert.Equal(t, 3, Count(10))
	assert.Equal(t, int64(12), AlignUp(int64(10)))
	assert.Equal(t, uint32(16), AlignUp(uint32(16)))
}

func TestParseByteOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    ByteOrder
		wantErr bool
	}{
		{in: "little", want: LittleEndian},
		{in: "BIG", want: BigEndian},
		{in: "", want: LittleEndian},
		{in: "middle", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseByteOrder(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	var o ByteOrder
	require.NoError(t, o.Set("big"))
	assert.Equal(t, "big", o.String())
}

func TestParseLiteral(t *testing.T) {
	for in, want := range map[string]uint32{
		"32'hDEADBEEF": 0xDEADBEEF,
		"'h0000_0400":  0x400,
		"0000ABCD":     0xABCD,
	} {
		got, err := ParseLiteral(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLiteral("32'd10")
	assert.Error(t, err)
}
