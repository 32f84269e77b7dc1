package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/payflow-reconciler/internal/adapters/locks"
	"github.com/kevin07696/payflow-reconciler/internal/adapters/payflow"
	"github.com/kevin07696/payflow-reconciler/internal/adapters/postgres"
	"github.com/kevin07696/payflow-reconciler/internal/adapters/secrets"
	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/services/reconciliation"
	"github.com/kevin07696/payflow-reconciler/internal/testutil/fixtures"
	"github.com/kevin07696/payflow-reconciler/pkg/security"
	"github.com/kevin07696/payflow-reconciler/test/integration/testdb"
)

const history = "RESULT=0&RPREF=RKM500141021&PROFILEID=RT0000000100" +
	"&P_PNREF1=VWYA06156256&P_TRANSTIME1=21-May-04 04:47PM&P_RESULT1=0&P_TENDER1=C&P_AMT1=1.00&P_TRANSTATE1=8" +
	"&P_PNREF2=VWYA06156269&P_TRANSTIME2=27-May-04 01:19PM&P_RESULT2=0&P_TENDER2=C&P_AMT2=1.00&P_TRANSTATE2=8" +
	"&P_PNREF3=VWYA06157650&P_TRANSTIME3=03-Jun-04 04:47PM&P_RESULT3=0&P_TENDER3=C&P_AMT3=1.00&P_TRANSTATE3=8" +
	"&P_PNREF4=VWYA06157668&P_TRANSTIME4=10-Jun-04 04:47PM&P_RESULT4=0&P_TENDER4=C&P_AMT4=1.00&P_TRANSTATE4=8" +
	"&P_PNREF5=VWYA06158795&P_TRANSTIME5=17-Jun-04 04:47PM&P_RESULT5=0&P_TENDER5=C&P_AMT5=1.00&P_TRANSTATE5=8" +
	"&P_PNREF6=VJLA00000060&P_TRANSTIME6=05-Aug-04 05:54PM&P_RESULT6=0&P_TENDER6=C&P_AMT6=1.00&P_TRANSTATE6=1"

type gatewayStub struct {
	*httptest.Server
	mu       sync.Mutex
	requests []string
}

func newGatewayStub(t *testing.T) *gatewayStub {
	s := &gatewayStub{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, string(body))
		s.mu.Unlock()
		_, _ = io.WriteString(w, history)
	}))
	t.Cleanup(s.Close)
	return s
}

func TestImportRecurPayments_Postgres(t *testing.T) {
	pool := testdb.SetupTestDB(t)
	ctx := context.Background()

	db := postgres.NewDBExecutor(pool)
	ledger := postgres.NewLedgerRepository(db)
	profiles := postgres.NewRecurringProfileRepository(db)

	profile := fixtures.NewRecurringProfile().WithAmount("1.00").WithFrequency(1, domain.FrequencyUnitWeek).Build()
	require.NoError(t, profiles.Create(ctx, profile))
	require.NoError(t, profiles.SetProcessorID(ctx, profile.ID, "RT0000000100", &domain.RecurringSchedule{
		Start:     fixtures.Date(2004, time.May, 21),
		PayPeriod: domain.PayPeriodWeekly,
	}))

	// a live profile must not be touched by a test-mode run
	live := fixtures.NewRecurringProfile().Live().Build()
	require.NoError(t, profiles.Create(ctx, live))
	require.NoError(t, profiles.SetProcessorID(ctx, live.ID, "RT0000000999", &domain.RecurringSchedule{
		Start:     fixtures.Date(2004, time.May, 21),
		PayPeriod: domain.PayPeriodMonthly,
	}))

	stub := newGatewayStub(t)
	creds := secrets.NewStaticCredentialProvider(domain.GatewayCredentials{
		VendorID:  "acme",
		PartnerID: "PayPal",
		Password:  "pw",
		URL:       stub.URL,
		IsTest:    true,
	})
	logger := security.NewZapLogger(zap.NewNop())
	transport := payflow.NewTransport(payflow.DefaultTransportConfig(), zap.NewNop())
	gateway := payflow.NewGateway(transport, creds, payflow.DefaultGatewayConfig(), logger)
	svc := reconciliation.NewService(gateway, ledger, profiles, creds, locks.NewKeyedMutex(),
		reconciliation.DefaultConfig(), logger)

	first, err := svc.ImportLatestRecurPayments(ctx, nil, domain.HistoryScopeAll)
	require.NoError(t, err)
	require.Len(t, first.Outcomes, 1)
	assert.True(t, first.Clean())
	assert.Equal(t, 6, first.CreatedCount())

	entries, err := ledger.Query(ctx, profile.ID, true)
	require.NoError(t, err)
	require.Len(t, entries, 6)

	byTrxn := map[string]*domain.LedgerEntry{}
	for _, e := range entries {
		byTrxn[e.TrxnID] = e
	}
	assert.Equal(t, domain.LedgerStatusCompleted, byTrxn["VWYA06157668"].Status)
	assert.Equal(t, time.Date(2004, 6, 10, 16, 47, 0, 0, time.UTC), byTrxn["VWYA06157668"].ReceiveDate.UTC())
	assert.Equal(t, domain.LedgerStatusFailed, byTrxn["VJLA00000060"].Status)
	assert.Equal(t, "error", byTrxn["VJLA00000060"].CancelReason)

	second, err := svc.ImportLatestRecurPayments(ctx, []string{"RT0000000100"}, domain.HistoryScopeAll)
	require.NoError(t, err)
	require.Len(t, second.Outcomes, 1)
	assert.Equal(t, 0, second.CreatedCount())
	assert.Len(t, second.Outcomes[0].Matched, 6)

	entries, err = ledger.Query(ctx, profile.ID, true)
	require.NoError(t, err)
	assert.Len(t, entries, 6)

	stub.mu.Lock()
	defer stub.mu.Unlock()
	require.Len(t, stub.requests, 2)
	for _, req := range stub.requests {
		assert.True(t, strings.Contains(req, "ORIGPROFILEID[12]=RT0000000100"), req)
	}
}
