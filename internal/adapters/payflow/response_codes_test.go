package payflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/kevin07696/payflow-reconciler/pkg/errors"
	"github.com/kevin07696/payflow-reconciler/test/mocks"
)

func TestInterpret_Success(t *testing.T) {
	logger := mocks.NewMockLogger()

	err := Interpret("sale", Record{"RESULT": "0", "RESPMSG": "Approved"}, logger)

	assert.NoError(t, err)
	assert.Empty(t, logger.ErrorCalls)
}

func TestInterpret_Mapping(t *testing.T) {
	tests := []struct {
		name     string
		result   string
		respMsg  string
		kind     error
		code     int
		category pkgerrors.ErrorCategory
		message  string
	}{
		{
			name:     "configuration",
			result:   "1",
			respMsg:  "User authentication failed",
			kind:     pkgerrors.ErrConfiguration,
			code:     9003,
			category: pkgerrors.CategoryConfiguration,
			message:  "There is a payment processor configuration problem",
		},
		{
			name:     "hard decline",
			result:   "12",
			respMsg:  "Declined",
			kind:     pkgerrors.ErrHardDecline,
			code:     9009,
			category: pkgerrors.CategoryDeclined,
			message:  "Your transaction was declined",
		},
		{
			name:     "voice authorization",
			result:   "13",
			respMsg:  "Referral",
			kind:     pkgerrors.ErrPendingVoiceAuth,
			code:     9010,
			category: pkgerrors.CategoryPending,
			message:  "Your Transaction is pending",
		},
		{
			name:     "invalid card",
			result:   "23",
			respMsg:  "Invalid account number",
			kind:     pkgerrors.ErrInvalidCardData,
			code:     9011,
			category: pkgerrors.CategoryInvalidCard,
			message:  "Invalid credit card information",
		},
		{
			name:     "missing credentials",
			result:   "26",
			respMsg:  "Invalid vendor account",
			kind:     pkgerrors.ErrMissingCredentials,
			code:     9012,
			category: pkgerrors.CategoryConfiguration,
			message:  "correct credentials",
		},
		{
			name:     "unknown",
			result:   "999",
			respMsg:  "Something odd",
			kind:     pkgerrors.ErrUnknownGateway,
			code:     9013,
			category: pkgerrors.CategorySystemError,
			message:  "Error - from payment processor: [999 Something odd]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := mocks.NewMockLogger()

			err := Interpret("sale", Record{"RESULT": tt.result, "RESPMSG": tt.respMsg}, logger)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var gerr *pkgerrors.GatewayError
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, tt.code, gerr.Code)
			assert.Equal(t, tt.category, gerr.Category)
			assert.Equal(t, tt.respMsg, gerr.GatewayMessage)
			assert.Contains(t, gerr.Message, tt.message)

			require.Len(t, logger.ErrorCalls, 1)
			fields := map[string]interface{}{}
			for _, f := range logger.ErrorCalls[0].Fields {
				fields[f.Key] = f.Value
			}
			assert.Equal(t, tt.respMsg, fields["respmsg"])
			assert.Equal(t, tt.code, fields["code"])
		})
	}
}

func TestInterpret_NonNumericResult(t *testing.T) {
	logger := mocks.NewMockLogger()

	err := Interpret("inquiry", Record{"RESULT": "abc"}, logger)

	assert.ErrorIs(t, err, pkgerrors.ErrMissingResult)
	assert.Len(t, logger.ErrorCalls, 1)
}

func TestGetResultCode_Unknown(t *testing.T) {
	info := GetResultCode(-1)

	assert.Equal(t, pkgerrors.ErrUnknownGateway, info.Kind)
	assert.Equal(t, -1, info.Result)
}
