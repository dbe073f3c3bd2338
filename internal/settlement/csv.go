package settlement

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteLedger(f, ledger)
}

// WriteLedger writes the ledger as CSV to w.
func WriteLedger(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)

	header := []string{
		"index",
		"interval_start_local",
		"interval_start_utc",
		"provider",
		"label",
		"asset",
		"settlement_point",
		"volume_mwh",
		"node_price",
		"hub_price",
		"hub_source",
		"basis",
		"merchant_pnl",
		"ppa_pnl",
		"market_revenue",
		"fixed_payment",
		"floating_payment",
		"pnl",
		"cum_pnl",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		res := r.Result
		hub := ""
		if res.HubPrice != nil {
			hub = fmtFloat(*res.HubPrice)
		}
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.IntervalStartLocal),
			fmtTime(r.IntervalStartUTC),
			r.Provider,
			r.Label,
			res.AssetKey,
			res.SettlementPoint,
			fmtFloat(res.VolumeMWh),
			fmtFloat(res.NodePrice),
			hub,
			string(res.HubSource),
			fmtFloat(res.Basis),
			fmtFloat(res.MerchantPnL),
			fmtFloat(res.PPAPnL),
			fmtFloat(res.MarketRevenue),
			fmtFloat(res.FixedPayment),
			fmtFloat(res.FloatingPayment),
			fmtFloat(res.PnL),
			fmtFloat(r.CumPnL),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
