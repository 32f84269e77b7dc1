package payflow

import (
	"fmt"

	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
	pkgerrors "github.com/kevin07696/payflow-reconciler/pkg/errors"
	"github.com/kevin07696/payflow-reconciler/pkg/observability"
)

// ResultCodeInfo describes how a gateway RESULT is reported to callers
type ResultCodeInfo struct {
	Result      int
	Kind        error
	Category    pkgerrors.ErrorCategory
	Code        int
	Description string
	UserMessage string
}

var resultCodes = map[int]ResultCodeInfo{
	1: {
		Result:      1,
		Kind:        pkgerrors.ErrConfiguration,
		Category:    pkgerrors.CategoryConfiguration,
		Code:        pkgerrors.CodeConfiguration,
		Description: "User authentication failed",
		UserMessage: "There is a payment processor configuration problem. This is usually due to invalid account information or ip restrictions on the account.",
	},
	12: {
		Result:      12,
		Kind:        pkgerrors.ErrHardDecline,
		Category:    pkgerrors.CategoryDeclined,
		Code:        pkgerrors.CodeHardDecline,
		Description: "Declined",
		UserMessage: "Your transaction was declined",
	},
	13: {
		Result:      13,
		Kind:        pkgerrors.ErrPendingVoiceAuth,
		Category:    pkgerrors.CategoryPending,
		Code:        pkgerrors.CodePendingVoiceAuth,
		Description: "Referral, voice authorization required",
		UserMessage: "Your Transaction is pending. Contact Customer Service to complete your order.",
	},
	23: {
		Result:      23,
		Kind:        pkgerrors.ErrInvalidCardData,
		Category:    pkgerrors.CategoryInvalidCard,
		Code:        pkgerrors.CodeInvalidCardData,
		Description: "Invalid account number",
		UserMessage: "Invalid credit card information. Please re-enter.",
	},
	26: {
		Result:      26,
		Kind:        pkgerrors.ErrMissingCredentials,
		Category:    pkgerrors.CategoryConfiguration,
		Code:        pkgerrors.CodeMissingCredentials,
		Description: "Invalid vendor account",
		UserMessage: `You have not configured your payment processor with the correct credentials. Make sure you have provided both the "vendor" and the "user" variables`,
	},
}

// GetResultCode returns the info for a RESULT. Codes without their own entry
// fall back to the generic gateway error.
func GetResultCode(result int) ResultCodeInfo {
	if info, ok := resultCodes[result]; ok {
		return info
	}
	return ResultCodeInfo{
		Result:      result,
		Kind:        pkgerrors.ErrUnknownGateway,
		Category:    pkgerrors.CategorySystemError,
		Code:        pkgerrors.CodeUnknownGateway,
		Description: "Unmapped gateway result",
	}
}

// ToGatewayError builds the classified error for a non-zero RESULT
func (r ResultCodeInfo) ToGatewayError(respMsg string) *pkgerrors.GatewayError {
	message := r.UserMessage
	if message == "" {
		message = fmt.Sprintf("Error - from payment processor: [%d %s]", r.Result, respMsg)
	}
	e := pkgerrors.NewGatewayError(r.Kind, r.Category, r.Code, message)
	e.ResultCode = r.Result
	e.GatewayMessage = respMsg
	return e
}

// Interpret checks RESULT. Success returns nil; every other code is logged
// with its RESPMSG and returned classified.
func Interpret(operation string, record Record, logger ports.Logger) error {
	result, err := record.Result()
	if err != nil {
		logger.Error("Gateway response has no usable RESULT",
			ports.String("operation", operation),
			ports.Err(err),
		)
		return err
	}
	observability.RecordGatewayResult(operation, result)

	if result == 0 {
		return nil
	}

	info := GetResultCode(result)
	respMsg := record["RESPMSG"]
	logger.Error("Gateway rejected request",
		ports.String("operation", operation),
		ports.Int("result", result),
		ports.String("respmsg", respMsg),
		ports.Int("code", info.Code),
	)
	return info.ToGatewayError(respMsg)
}
