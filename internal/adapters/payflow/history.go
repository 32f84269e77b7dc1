package payflow

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/pkg/timeutil"
)

// TransactionStateInfo is the local reading of a P_TRANSTATE value
type TransactionStateInfo struct {
	Status      domain.HistoryStatus
	Description string
}

var transactionStates = map[string]TransactionStateInfo{
	"1":  {Status: domain.HistoryStatusFailed, Description: "error"},
	"6":  {Status: domain.HistoryStatusPending, Description: "settlement pending"},
	"7":  {Status: domain.HistoryStatusPending, Description: "settlement in progress"},
	"8":  {Status: domain.HistoryStatusCompleted, Description: "settlement completed/successfully"},
	"11": {Status: domain.HistoryStatusFailed, Description: "settlement failed"},
	"14": {Status: domain.HistoryStatusFailed, Description: "settlement incomplete"},
}

// HistoryOptions adjusts how states are read
type HistoryOptions struct {
	// SettlePendingInTestMode reads state 6 as Completed. Test accounts
	// never settle, so without it nothing would ever complete.
	SettlePendingInTestMode bool
	IsTest                  bool
}

// LookupTransactionState maps a P_TRANSTATE value
func LookupTransactionState(code string, opts HistoryOptions) (TransactionStateInfo, bool) {
	info, ok := transactionStates[code]
	if ok && code == "6" && opts.IsTest && opts.SettlePendingInTestMode {
		info.Status = domain.HistoryStatusCompleted
	}
	return info, ok
}

const (
	keyPNRef     = "P_PNREF"
	keyTransTime = "P_TRANSTIME"
	keyResult    = "P_RESULT"
	keyTender    = "P_TENDER"
	keyAmount    = "P_AMT"
	keyTranState = "P_TRANSTATE"
)

var historyKeys = []string{keyPNRef, keyTransTime, keyResult, keyTender, keyAmount, keyTranState}

// ParseHistory reads the indexed P_* keys of an inquiry response. Records
// come back in index order. A record that cannot be read is reported as an
// anomaly and left out.
func ParseHistory(record Record, opts HistoryOptions) *domain.PaymentHistory {
	groups := map[int]map[string]string{}
	for key, value := range record {
		for _, prefix := range historyKeys {
			suffix, ok := strings.CutPrefix(key, prefix)
			if !ok {
				continue
			}
			idx, err := strconv.Atoi(suffix)
			if err != nil || idx < 0 {
				continue
			}
			if groups[idx] == nil {
				groups[idx] = map[string]string{}
			}
			groups[idx][prefix] = value
			break
		}
	}

	indexes := make([]int, 0, len(groups))
	for idx := range groups {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	history := &domain.PaymentHistory{
		ProfileID: record["PROFILEID"],
		Records:   make([]*domain.PaymentHistoryRecord, 0, len(indexes)),
	}
	for _, idx := range indexes {
		rec, err := parseHistoryRecord(strconv.Itoa(idx), groups[idx], opts)
		if err != nil {
			history.Anomalies = append(history.Anomalies, domain.Anomaly{
				Index:   strconv.Itoa(idx),
				TrxnID:  groups[idx][keyPNRef],
				Message: err.Error(),
			})
			continue
		}
		history.Records = append(history.Records, rec)
	}
	return history
}

func parseHistoryRecord(index string, fields map[string]string, opts HistoryOptions) (*domain.PaymentHistoryRecord, error) {
	trxnID := fields[keyPNRef]
	if trxnID == "" {
		return nil, fmt.Errorf("record %s has no %s", index, keyPNRef)
	}

	state, ok := LookupTransactionState(fields[keyTranState], opts)
	if !ok {
		return nil, fmt.Errorf("unknown transaction state %q", fields[keyTranState])
	}

	amount, err := decimal.NewFromString(fields[keyAmount])
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", fields[keyAmount], err)
	}

	ts, err := timeutil.ParseTransTime(fields[keyTransTime])
	if err != nil {
		return nil, err
	}

	return &domain.PaymentHistoryRecord{
		TrxnTimestamp:        ts,
		Index:                index,
		TrxnID:               trxnID,
		TenderCode:           fields[keyTender],
		ResultCode:           fields[keyResult],
		TransactionStateCode: fields[keyTranState],
		MappedStatus:         state.Status,
		StatusDescription:    state.Description,
		Amount:               amount,
	}, nil
}
