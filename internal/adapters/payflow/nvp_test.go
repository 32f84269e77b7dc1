package payflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/kevin07696/payflow-reconciler/pkg/errors"
)

func TestEncode(t *testing.T) {
	fields := []Field{
		{Key: "TRXTYPE", Value: "S"},
		{Key: "AMT", Value: "10.00"},
		{Key: "COMMENT1", Value: "a&b=c"},
		{Key: "EMPTY", Value: ""},
	}

	assert.Equal(t, "TRXTYPE[1]=S&AMT[5]=10.00&COMMENT1[5]=a&b=c&EMPTY[0]=", Encode(fields))
}

func TestEncode_ByteLength(t *testing.T) {
	// "é" is two bytes in UTF-8
	assert.Equal(t, "CITY[9]=Montréal", Encode([]Field{{Key: "CITY", Value: "Montréal"}}))
}

func TestDecode(t *testing.T) {
	record, err := Decode("RESULT=0&PNREF=VWYA06156256&RESPMSG=Approved")
	require.NoError(t, err)

	assert.Equal(t, Record{"RESULT": "0", "PNREF": "VWYA06156256", "RESPMSG": "Approved"}, record)
}

func TestDecode_RoundTrip(t *testing.T) {
	// responses are not length-prefixed, so round trip through a plain join
	fields := []Field{
		{Key: "RESULT", Value: "0"},
		{Key: "RESPMSG", Value: "Approved"},
		{Key: "PROFILEID", Value: "RT0000000100"},
		{Key: "P_TRANSTIME1", Value: "21-May-04 04:47PM"},
		{Key: "AUTHCODE", Value: ""},
	}

	body := ""
	for i, f := range fields {
		if i > 0 {
			body += "&"
		}
		body += f.Key + "=" + f.Value
	}

	record, err := Decode(body)
	require.NoError(t, err)
	require.Len(t, record, len(fields))
	for _, f := range fields {
		assert.Equal(t, f.Value, record[f.Key], f.Key)
	}
}

func TestDecode_AmpersandTruncatesValue(t *testing.T) {
	record, err := Decode("RESULT=0&RESPMSG=Approved & captured&PNREF=V1")
	require.NoError(t, err)

	// the value stops at the first "&"; the tail becomes its own key
	assert.Equal(t, "Approved ", record["RESPMSG"])
	assert.Contains(t, record, " captured")
	assert.Equal(t, "", record[" captured"])
	assert.Equal(t, "V1", record["PNREF"])
}

func TestDecode_DiscardsPrefixBeforeResult(t *testing.T) {
	record, err := Decode("HTTP junk TRXPNREF=1&RESULT=12&RESPMSG=Declined")
	require.NoError(t, err)

	assert.NotContains(t, record, "TRXPNREF")
	assert.Equal(t, "12", record["RESULT"])
	assert.Equal(t, "Declined", record["RESPMSG"])
}

func TestDecode_MissingResult(t *testing.T) {
	for _, body := range []string{"", "PNREF=V1&RESPMSG=Approved", "result=0"} {
		_, err := Decode(body)
		assert.ErrorIs(t, err, pkgerrors.ErrMissingResult, body)

		var gerr *pkgerrors.GatewayError
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, pkgerrors.CodeMissingResult, gerr.Code)
	}
}

func TestDecode_EdgeSegments(t *testing.T) {
	record, err := Decode("RESULT=0&&NOEQUALS&DUP=1&DUP=2&EQ=a=b")
	require.NoError(t, err)

	assert.Equal(t, "", record["NOEQUALS"])
	assert.Equal(t, "2", record["DUP"])
	assert.Equal(t, "a=b", record["EQ"])
	assert.NotContains(t, record, "")
}

func TestRecord_Result(t *testing.T) {
	code, err := Record{"RESULT": "26"}.Result()
	require.NoError(t, err)
	assert.Equal(t, 26, code)

	code, err = Record{"RESULT": "-1"}.Result()
	require.NoError(t, err)
	assert.Equal(t, -1, code)

	_, err = Record{"RESULT": "OK"}.Result()
	assert.ErrorIs(t, err, pkgerrors.ErrMissingResult)

	_, err = Record{}.Result()
	assert.ErrorIs(t, err, pkgerrors.ErrMissingResult)
}
