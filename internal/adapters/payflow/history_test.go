package payflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
)

const historyFixture = "RESULT=0&RPREF=RKM500141021&PROFILEID=RT0000000100" +
	"&P_PNREF1=VWYA06156256&P_TRANSTIME1=21-May-04 04:47PM&P_RESULT1=0&P_TENDER1=C&P_AMT1=1.00&P_TRANSTATE1=8" +
	"&P_PNREF2=VWYA06156269&P_TRANSTIME2=27-May-04 01:19PM&P_RESULT2=0&P_TENDER2=C&P_AMT2=1.00&P_TRANSTATE2=8" +
	"&P_PNREF3=VWYA06157650&P_TRANSTIME3=03-Jun-04 04:47PM&P_RESULT3=0&P_TENDER3=C&P_AMT3=1.00&P_TRANSTATE3=8" +
	"&P_PNREF4=VWYA06157668&P_TRANSTIME4=10-Jun-04 04:47PM&P_RESULT4=0&P_TENDER4=C&P_AMT4=1.00&P_TRANSTATE4=8" +
	"&P_PNREF5=VWYA06158795&P_TRANSTIME5=17-Jun-04 04:47PM&P_RESULT5=0&P_TENDER5=C&P_AMT5=1.00&P_TRANSTATE5=8" +
	"&P_PNREF6=VJLA00000060&P_TRANSTIME6=05-Aug-04 05:54PM&P_RESULT6=0&P_TENDER6=C&P_AMT6=1.00&P_TRANSTATE6=1"

func TestParseHistory_Fixture(t *testing.T) {
	record, err := Decode(historyFixture)
	require.NoError(t, err)

	history := ParseHistory(record, HistoryOptions{})

	assert.Equal(t, "RT0000000100", history.ProfileID)
	assert.Empty(t, history.Anomalies)
	require.Len(t, history.Records, 6)

	rec := history.Records[3]
	assert.Equal(t, "4", rec.Index)
	assert.Equal(t, "VWYA06157668", rec.TrxnID)
	assert.Equal(t, time.Date(2004, 6, 10, 16, 47, 0, 0, time.UTC), rec.TrxnTimestamp)
	assert.Equal(t, "C", rec.TenderCode)
	assert.Equal(t, "0", rec.ResultCode)
	assert.Equal(t, "8", rec.TransactionStateCode)
	assert.Equal(t, domain.HistoryStatusCompleted, rec.MappedStatus)
	assert.Equal(t, "settlement completed/successfully", rec.StatusDescription)
	assert.True(t, decimal.RequireFromString("1.00").Equal(rec.Amount))

	last := history.Records[5]
	assert.Equal(t, "VJLA00000060", last.TrxnID)
	assert.Equal(t, domain.HistoryStatusFailed, last.MappedStatus)
	assert.Equal(t, "error", last.StatusDescription)
}

func TestParseHistory_IndexOrder(t *testing.T) {
	record := Record{
		"RESULT":        "0",
		"P_PNREF10":     "TEN",
		"P_TRANSTIME10": "01-Jan-20 10:00AM",
		"P_AMT10":       "2.00",
		"P_TRANSTATE10": "7",
		"P_PNREF2":      "TWO",
		"P_TRANSTIME2":  "01-Feb-20 10:00AM",
		"P_AMT2":        "2.00",
		"P_TRANSTATE2":  "11",
	}

	history := ParseHistory(record, HistoryOptions{})

	require.Len(t, history.Records, 2)
	assert.Equal(t, "TWO", history.Records[0].TrxnID)
	assert.Equal(t, "TEN", history.Records[1].TrxnID)
	assert.Equal(t, domain.HistoryStatusPending, history.Records[1].MappedStatus)
}

func TestParseHistory_Anomalies(t *testing.T) {
	record := Record{
		"RESULT":       "0",
		"P_PNREF1":     "BADSTATE",
		"P_TRANSTIME1": "01-Jan-20 10:00AM",
		"P_AMT1":       "1.00",
		"P_TRANSTATE1": "99",
		"P_PNREF2":     "BADAMT",
		"P_TRANSTIME2": "01-Jan-20 10:00AM",
		"P_AMT2":       "one",
		"P_TRANSTATE2": "8",
		"P_TRANSTIME3": "01-Jan-20 10:00AM",
		"P_AMT3":       "1.00",
		"P_TRANSTATE3": "8",
		"P_PNREF4":     "GOOD",
		"P_TRANSTIME4": "01-Jan-20 10:00AM",
		"P_AMT4":       "1.00",
		"P_TRANSTATE4": "8",
	}

	history := ParseHistory(record, HistoryOptions{})

	require.Len(t, history.Records, 1)
	assert.Equal(t, "GOOD", history.Records[0].TrxnID)
	require.Len(t, history.Anomalies, 3)
	assert.Equal(t, "BADSTATE", history.Anomalies[0].TrxnID)
	assert.Contains(t, history.Anomalies[0].Message, "unknown transaction state")
	assert.Equal(t, "BADAMT", history.Anomalies[1].TrxnID)
	assert.Equal(t, "3", history.Anomalies[2].Index)
}

func TestLookupTransactionState_TestModeSettlement(t *testing.T) {
	info, ok := LookupTransactionState("6", HistoryOptions{})
	require.True(t, ok)
	assert.Equal(t, domain.HistoryStatusPending, info.Status)

	info, _ = LookupTransactionState("6", HistoryOptions{SettlePendingInTestMode: true})
	assert.Equal(t, domain.HistoryStatusPending, info.Status, "live accounts keep pending")

	info, _ = LookupTransactionState("6", HistoryOptions{SettlePendingInTestMode: true, IsTest: true})
	assert.Equal(t, domain.HistoryStatusCompleted, info.Status)
	assert.Equal(t, "settlement pending", info.Description)

	info, _ = LookupTransactionState("7", HistoryOptions{SettlePendingInTestMode: true, IsTest: true})
	assert.Equal(t, domain.HistoryStatusPending, info.Status)
}
