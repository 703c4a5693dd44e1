package app

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"

	"hexbet/internal/engine"
	"hexbet/internal/state"
)

type roundView struct {
	*state.Round
	Expired        bool  `json:"expired"`
	RevealDeadline int64 `json:"revealDeadline"`
}

type bankerView struct {
	Addr            string `json:"addr"`
	Shares          string `json:"shares"`
	AvgNAV          string `json:"avgNav"`
	RedeemableValue string `json:"redeemableValue"`
	ProfitRatio     string `json:"profitRatio"`
}

func (a *HexbetApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Paths:
	// - /round/<epoch>, /round/latest
	// - /bet/<epoch>/<addr>
	// - /banker/<addr>
	// - /vault, /treasury, /params
	// - /account/<addr>, /history/<addr>, /claimable/<addr>
	st := a.st
	h := st.Height
	path := strings.TrimSpace(req.Path)
	switch {
	case path == "/round/latest":
		r := st.LatestRound()
		if r == nil {
			return queryErr(h, "no rounds"), nil
		}
		return queryOK(h, roundView{Round: r, Expired: r.IsExpired(h), RevealDeadline: r.RevealDeadline()}), nil

	case strings.HasPrefix(path, "/round/"):
		epoch, err := strconv.ParseUint(strings.TrimPrefix(path, "/round/"), 10, 64)
		if err != nil {
			return queryErr(h, "invalid epoch"), nil
		}
		r := st.Round(epoch)
		if r == nil {
			return queryErr(h, "round not found"), nil
		}
		return queryOK(h, roundView{Round: r, Expired: r.IsExpired(h), RevealDeadline: r.RevealDeadline()}), nil

	case strings.HasPrefix(path, "/bet/"):
		parts := strings.SplitN(strings.TrimPrefix(path, "/bet/"), "/", 2)
		if len(parts) != 2 || parts[1] == "" {
			return queryErr(h, "want /bet/<epoch>/<addr>"), nil
		}
		epoch, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return queryErr(h, "invalid epoch"), nil
		}
		b := st.Bet(epoch, parts[1])
		if b == nil {
			return queryErr(h, "bet not found"), nil
		}
		return queryOK(h, b), nil

	case strings.HasPrefix(path, "/banker/"):
		addr := strings.TrimPrefix(path, "/banker/")
		k := a.keeper(st, h)
		v := bankerView{Addr: addr, Shares: "0", AvgNAV: "0"}
		if b := st.Bankers[addr]; b != nil {
			v.Shares = b.Shares.String()
			v.AvgNAV = b.AvgNAV.String()
		}
		v.RedeemableValue = k.RedeemableValue(addr).String()
		v.ProfitRatio = k.ProfitRatio(addr).String()
		return queryOK(h, v), nil

	case path == "/vault":
		return queryOK(h, st.Vault), nil

	case path == "/treasury":
		return queryOK(h, map[string]any{
			"treasury":     st.Treasury,
			"bonusReserve": st.BonusReserve,
			"custody":      st.Balance(CustodyAccount),
			"custodyAsset": st.AssetBalance(CustodyAccount),
		}), nil

	case path == "/params":
		return queryOK(h, st.Params), nil

	case strings.HasPrefix(path, "/account/"):
		addr := strings.TrimPrefix(path, "/account/")
		return queryOK(h, map[string]any{
			"addr":    addr,
			"balance": st.Balance(addr),
			"asset":   st.AssetBalance(addr),
			"nonce":   st.NonceMax[addr],
		}), nil

	case strings.HasPrefix(path, "/history/"):
		addr := strings.TrimPrefix(path, "/history/")
		epochs := st.History[addr]
		if epochs == nil {
			epochs = []uint64{}
		}
		return queryOK(h, epochs), nil

	case strings.HasPrefix(path, "/claimable/"):
		addr := strings.TrimPrefix(path, "/claimable/")
		claims := a.keeper(st, h).Claimable(addr)
		if claims == nil {
			claims = []engine.PendingClaim{}
		}
		return queryOK(h, claims), nil

	default:
		return queryErr(h, "unknown query path"), nil
	}
}

func queryOK(height int64, v any) *abci.QueryResponse {
	b, err := json.Marshal(v)
	if err != nil {
		return queryErr(height, err.Error())
	}
	return &abci.QueryResponse{Code: 0, Value: b, Height: height}
}

func queryErr(height int64, msg string) *abci.QueryResponse {
	return &abci.QueryResponse{Code: 1, Log: msg, Height: height}
}
