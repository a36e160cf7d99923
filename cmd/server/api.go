package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/artfilabs/tokenizer/internal/collection"
	collectionstub "github.com/artfilabs/tokenizer/internal/collection/stub"
	"github.com/artfilabs/tokenizer/internal/currency"
	currencystub "github.com/artfilabs/tokenizer/internal/currency/stub"
	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/observability"
	"github.com/artfilabs/tokenizer/internal/storage"
	"github.com/artfilabs/tokenizer/internal/tokenization"
)

// apiServer exposes the tokenization service over JSON HTTP. It also
// keeps the opaque capability and authority values issued by the stub
// systems, keyed by collection and token type, since those never cross
// the wire.
type apiServer struct {
	svc         *tokenization.Service
	collections *collectionstub.Service
	currencies  *currencystub.Service
	hub         *eventHub
	logger      *log.Logger

	mu          sync.Mutex
	caps        map[string]collection.CreatorCap
	authorities map[string]currency.TreasuryAuthority
	started     time.Time
	requests    int
}

func newAPIServer(svc *tokenization.Service, collections *collectionstub.Service, currencies *currencystub.Service, hub *eventHub, logger *log.Logger) *apiServer {
	return &apiServer{
		svc:         svc,
		collections: collections,
		currencies:  currencies,
		hub:         hub,
		logger:      logger,
		caps:        make(map[string]collection.CreatorCap),
		authorities: make(map[string]currency.TreasuryAuthority),
		started:     time.Now(),
	}
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/collections", s.instrument("create_collection", s.handleCreateCollection))
	mux.HandleFunc("POST /api/tokens", s.instrument("create_token", s.handleCreateToken))
	mux.HandleFunc("POST /api/tokens/{tokenType}/collections", s.instrument("tokenize_collection", s.handleTokenize))
	mux.HandleFunc("POST /api/ledgers/{ledgerID}/mint", s.instrument("mint_additional", s.handleMint))
	mux.HandleFunc("POST /api/ledgers/{ledgerID}/freeze", s.instrument("freeze_minting", s.handleFreeze))
	mux.HandleFunc("POST /api/ledgers/{ledgerID}/ratio", s.instrument("update_ratio", s.handleUpdateRatio))

	mux.HandleFunc("GET /api/ledgers/{ledgerID}", s.instrument("get_ledger", s.handleGetLedger))
	mux.HandleFunc("GET /api/ledgers/{ledgerID}/events", s.instrument("get_ledger_events", s.handleGetLedgerEvents))
	mux.HandleFunc("GET /api/ledgers/{ledgerID}/redemption", s.instrument("redemption", s.handleRedemption))
	mux.HandleFunc("GET /api/registry/{tokenType}", s.instrument("registry_stats", s.handleRegistryStats))
	mux.HandleFunc("GET /api/registry/{tokenType}/collections/{collectionID}", s.instrument("registration", s.handleRegistration))

	mux.HandleFunc("GET /ws/events", s.handleWS)

	return mux
}

// instrument wraps a handler with request metrics.
func (s *apiServer) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)

		s.mu.Lock()
		s.requests++
		s.mu.Unlock()

		observability.RecordHTTPRequest(route, strconv.Itoa(rec.code), time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

type createCollectionRequest struct {
	Creator       string `json:"creator"`
	InitialSupply uint64 `json:"initial_supply"`
}

func (s *apiServer) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	creator := domain.Address(req.Creator)
	if err := creator.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid creator address")
		return
	}

	cap := s.collections.CreateCollection(creator, req.InitialSupply)

	s.mu.Lock()
	s.caps[cap.CollectionID()] = cap
	s.mu.Unlock()

	s.writeJSON(w, http.StatusCreated, map[string]string{"collection_id": cap.CollectionID()})
}

type createTokenRequest struct {
	Caller       string `json:"caller"`
	CollectionID string `json:"collection_id"`
	TokensPerNFT uint64 `json:"tokens_per_nft"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Description  string `json:"description"`
	IconURI      string `json:"icon_uri"`
	Decimals     int    `json:"decimals"`
}

type createTokenResponse struct {
	TokenType    string `json:"token_type"`
	DescriptorID string `json:"descriptor_id"`
	LedgerID     string `json:"ledger_id"`
	TotalNFTs    uint64 `json:"total_nfts"`
	TotalTokens  uint64 `json:"total_tokens"`
}

func (s *apiServer) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cap, ok := s.lookupCap(req.CollectionID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown collection")
		return
	}

	res, err := s.svc.CreateTokenForCollection(r.Context(), tokenization.CreateTokenRequest{
		Caller:       domain.Address(req.Caller),
		Cap:          cap,
		TokensPerNFT: req.TokensPerNFT,
		Name:         req.Name,
		Symbol:       req.Symbol,
		Description:  req.Description,
		IconURI:      req.IconURI,
		Decimals:     req.Decimals,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.mu.Lock()
	s.authorities[res.TokenType] = res.Authority
	s.mu.Unlock()

	s.writeJSON(w, http.StatusCreated, createTokenResponse{
		TokenType:    res.TokenType,
		DescriptorID: res.DescriptorID,
		LedgerID:     res.LedgerID,
		TotalNFTs:    res.TotalNFTs,
		TotalTokens:  res.TotalTokens,
	})
}

type tokenizeRequest struct {
	Caller       string `json:"caller"`
	CollectionID string `json:"collection_id"`
	TokensPerNFT uint64 `json:"tokens_per_nft"`
}

func (s *apiServer) handleTokenize(w http.ResponseWriter, r *http.Request) {
	tokenType := r.PathValue("tokenType")

	var req tokenizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cap, ok := s.lookupCap(req.CollectionID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown collection")
		return
	}
	authority, ok := s.lookupAuthority(tokenType)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown token type")
		return
	}

	res, err := s.svc.TokenizeExistingCollection(r.Context(), tokenization.TokenizeRequest{
		Caller:       domain.Address(req.Caller),
		Cap:          cap,
		TokenType:    tokenType,
		TokensPerNFT: req.TokensPerNFT,
		Authority:    authority,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, res)
}

type mintRequest struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

func (s *apiServer) handleMint(w http.ResponseWriter, r *http.Request) {
	ledgerID := r.PathValue("ledgerID")

	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cap, authority, ok := s.lookupLedgerCredentials(r, ledgerID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown ledger")
		return
	}

	res, err := s.svc.MintAdditional(r.Context(), tokenization.MintRequest{
		Caller:    domain.Address(req.Caller),
		Cap:       cap,
		LedgerID:  ledgerID,
		Amount:    req.Amount,
		Authority: authority,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, res)
}

type freezeRequest struct {
	Caller string `json:"caller"`
}

func (s *apiServer) handleFreeze(w http.ResponseWriter, r *http.Request) {
	ledgerID := r.PathValue("ledgerID")

	var req freezeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cap, _, ok := s.lookupLedgerCredentials(r, ledgerID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown ledger")
		return
	}

	err := s.svc.FreezeMinting(r.Context(), tokenization.FreezeRequest{
		Caller:   domain.Address(req.Caller),
		Cap:      cap,
		LedgerID: ledgerID,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"frozen": true})
}

type ratioRequest struct {
	Caller   string `json:"caller"`
	NewRatio uint64 `json:"new_ratio"`
}

func (s *apiServer) handleUpdateRatio(w http.ResponseWriter, r *http.Request) {
	ledgerID := r.PathValue("ledgerID")

	var req ratioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cap, _, ok := s.lookupLedgerCredentials(r, ledgerID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown ledger")
		return
	}

	err := s.svc.UpdateTokenRatio(r.Context(), tokenization.RatioRequest{
		Caller:   domain.Address(req.Caller),
		Cap:      cap,
		LedgerID: ledgerID,
		NewRatio: req.NewRatio,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]uint64{"tokens_per_nft": req.NewRatio})
}

func (s *apiServer) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.GetCollectionInfo(r.Context(), r.PathValue("ledgerID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

func (s *apiServer) handleGetLedgerEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.GetEventsByLedger(r.Context(), r.PathValue("ledgerID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, events)
}

// handleRedemption answers both redemption queries: ?nfts=N returns the
// token cost, ?tokens=N returns the whole items redeemable.
func (s *apiServer) handleRedemption(w http.ResponseWriter, r *http.Request) {
	ledgerID := r.PathValue("ledgerID")

	if v := r.URL.Query().Get("nfts"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid nfts parameter")
			return
		}
		cost, err := s.svc.CalculateRedemptionCost(r.Context(), ledgerID, n)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]uint64{"token_cost": cost})
		return
	}

	if v := r.URL.Query().Get("tokens"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid tokens parameter")
			return
		}
		redeemable, err := s.svc.CalculateNFTsRedeemable(r.Context(), ledgerID, n)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]uint64{"nfts_redeemable": redeemable})
		return
	}

	s.writeError(w, http.StatusBadRequest, "either nfts or tokens parameter is required")
}

func (s *apiServer) handleRegistryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.GetRegistryStats(r.Context(), r.PathValue("tokenType"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *apiServer) handleRegistration(w http.ResponseWriter, r *http.Request) {
	tokenType := r.PathValue("tokenType")
	collectionID := r.PathValue("collectionID")

	info, err := s.svc.GetCollectionInfoByCollection(r.Context(), tokenType, collectionID)
	if err != nil {
		if errors.Is(err, tokenization.ErrNotRegistered) {
			s.writeJSON(w, http.StatusOK, map[string]any{"registered": false})
			return
		}
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"registered": true, "ledger": info})
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	Requests      int    `json:"requests"`
	WSSubscribers int    `json:"ws_subscribers"`
}

// handleStatus returns server status as JSON.
func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:   "running",
		Uptime:   time.Since(s.started).String(),
		Requests: s.requests,
	}
	s.mu.Unlock()
	resp.WSSubscribers = s.hub.subscriberCount()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *apiServer) lookupCap(collectionID string) (collection.CreatorCap, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cap, ok := s.caps[collectionID]
	return cap, ok
}

func (s *apiServer) lookupAuthority(tokenType string) (currency.TreasuryAuthority, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.authorities[tokenType]
	return a, ok
}

// lookupLedgerCredentials resolves the capability and authority for a
// ledger by reading its collection and token type.
func (s *apiServer) lookupLedgerCredentials(r *http.Request, ledgerID string) (collection.CreatorCap, currency.TreasuryAuthority, bool) {
	info, err := s.svc.GetCollectionInfo(r.Context(), ledgerID)
	if err != nil {
		return nil, nil, false
	}
	cap, ok := s.lookupCap(info.CollectionID)
	if !ok {
		return nil, nil, false
	}
	authority, _ := s.lookupAuthority(info.TokenType)
	return cap, authority, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *apiServer) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("Failed to encode response: %v", err)
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, errorResponse{Error: msg})
}

// writeDomainError maps service errors to HTTP status codes.
func (s *apiServer) writeDomainError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, tokenization.ErrNotCreator),
		errors.Is(err, tokenization.ErrCollectionMismatch),
		errors.Is(err, tokenization.ErrAuthorityMismatch):
		code = http.StatusForbidden
	case errors.Is(err, tokenization.ErrNotRegistered):
		code = http.StatusNotFound
	case errors.Is(err, tokenization.ErrAlreadyRegistered),
		errors.Is(err, tokenization.ErrCollectionNotActive),
		errors.Is(err, storage.ErrVersionConflict):
		code = http.StatusConflict
	case errors.Is(err, tokenization.ErrInvalidMintAmount),
		errors.Is(err, tokenization.ErrInvalidTokenRatio),
		errors.Is(err, tokenization.ErrInvalidDecimals),
		errors.Is(err, tokenization.ErrOverflow),
		errors.Is(err, tokenization.ErrMaxSupplyExceeded):
		code = http.StatusUnprocessableEntity
	}
	if code == http.StatusInternalServerError {
		s.logger.Printf("Internal error: %v", err)
	}
	s.writeError(w, code, err.Error())
}
