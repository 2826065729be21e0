// Package fakebackend is an in-memory stand-in for the marketplace REST API,
// used by tests. It implements only what the client exercises and keeps all
// mock data out of production code.
package fakebackend

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/microtask/taskhub/internal/core/domain"
)

const secret = "fake-backend-secret"

type user struct {
	ID          string
	Name        string
	Email       string
	PhotoURL    string
	Role        domain.Role
	Coins       int
	Hash        []byte
	ExternalUID string
	Pending     bool
	CreatedAt   time.Time
}

func (u *user) dto() map[string]any {
	return map[string]any{
		"_id":       u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"photoUrl":  u.PhotoURL,
		"role":      u.Role,
		"coins":     u.Coins,
		"createdAt": u.CreatedAt,
	}
}

// Server is the fake backend. The zero value is not usable; call New.
type Server struct {
	Economy domain.Economy
	// RegisterOmitsToken makes /auth/register return only the user, forcing
	// clients to log in separately.
	RegisterOmitsToken bool
	TokenTTL           time.Duration

	mu          sync.Mutex
	seq         int
	users       map[string]*user // by id
	revoked     map[string]bool
	tasks       map[string]*domain.Task
	submissions map[string]*domain.Submission
	unread      map[string]int
	calls       map[string]int
	failVerify  int
	packages    []domain.CoinPackage

	echo *echo.Echo
}

// New returns a backend seeded with nothing.
func New() *Server {
	s := &Server{
		Economy:     domain.DefaultEconomy(),
		TokenTTL:    time.Hour,
		users:       make(map[string]*user),
		revoked:     make(map[string]bool),
		tasks:       make(map[string]*domain.Task),
		submissions: make(map[string]*domain.Submission),
		unread:      make(map[string]int),
		calls:       make(map[string]int),
		packages: []domain.CoinPackage{
			{ID: 1, Coins: 10, Price: 1},
			{ID: 2, Coins: 150, Price: 10},
			{ID: 3, Coins: 500, Price: 20, Popular: true},
			{ID: 4, Coins: 1000, Price: 35},
		},
	}
	s.echo = s.routes()
	return s
}

// ServeHTTP lets the fake be mounted on httptest.NewServer.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(s.count)

	e.POST("/auth/register", s.register)
	e.POST("/auth/login", s.login)
	e.POST("/auth/google-login", s.googleLogin)

	a := e.Group("", s.auth)
	a.GET("/auth/verify", s.verify)
	a.PATCH("/users/:id", s.updateProfile)
	a.PATCH("/users/:id/role", s.updateRole)
	a.GET("/tasks", s.listTasks)
	a.GET("/tasks/:id", s.getTask)
	a.POST("/tasks", s.createTask)
	a.DELETE("/tasks/:id", s.deleteTask)
	a.POST("/submissions", s.submit)
	a.PATCH("/submissions/:id/approve", s.approveSubmission)
	a.POST("/withdrawals", s.withdraw)
	a.GET("/withdrawals/worker", s.emptyList)
	a.GET("/notifications", s.emptyList)
	a.GET("/stats/:role", s.stats)
	a.GET("/payments/packages", s.listPackages)
	a.POST("/payments/process", s.purchase)
	a.GET("/notifications/unread-count", s.unreadCount)
	return e
}

// ── Test controls ─────────────────────────────────────────────────────────────

// SeedUser creates a user and returns its id.
func (s *Server) SeedUser(name, email, password string, role domain.Role, coins int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &user{ID: s.nextID("u"), Name: name, Email: email, Role: role, Coins: coins, Hash: hash, CreatedAt: time.Now().UTC()}
	s.users[u.ID] = u
	return u.ID
}

// SetCoins overwrites a user's authoritative balance.
func (s *Server) SetCoins(id string, coins int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.Coins = coins
	}
}

// Coins returns a user's authoritative balance.
func (s *Server) Coins(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u.Coins
	}
	return -1
}

// Role returns a user's role.
func (s *Server) Role(id string) domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u.Role
	}
	return ""
}

// IssueToken mints a valid token for a user id.
func (s *Server) IssueToken(id string) string {
	return s.sign(id, time.Now().Add(s.TokenTTL))
}

// IssueExpiredToken mints a token whose exp is in the past.
func (s *Server) IssueExpiredToken(id string) string {
	return s.sign(id, time.Now().Add(-time.Minute))
}

// RevokeAll rejects every token from now on.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked["*"] = true
}

// FailVerify makes the next n verify calls answer 503.
func (s *Server) FailVerify(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failVerify = n
}

// SetUnread sets the unread notification count for a user id.
func (s *Server) SetUnread(id string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread[id] = n
}

// Calls returns how many requests hit "METHOD /path" (route pattern).
func (s *Server) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// ── Middleware ────────────────────────────────────────────────────────────────

func (s *Server) count(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		s.mu.Lock()
		s.calls[c.Request().Method+" "+c.Path()]++
		s.mu.Unlock()
		return err
	}
}

func (s *Server) auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing token"})
		}

		claims := jwt.RegisteredClaims{}
		tkn, err := jwt.ParseWithClaims(parts[1], &claims, func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !tkn.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}

		s.mu.Lock()
		revoked := s.revoked["*"] || s.revoked[parts[1]]
		u, ok := s.users[claims.Subject]
		s.mu.Unlock()
		if revoked || !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "session expired"})
		}
		c.Set("uid", u.ID)
		return next(c)
	}
}

// ── Auth ──────────────────────────────────────────────────────────────────────

func (s *Server) register(c echo.Context) error {
	var req struct {
		Name     string      `json:"name"`
		Email    string      `json:"email"`
		Password string      `json:"password"`
		PhotoURL string      `json:"photoUrl"`
		Role     domain.Role `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if !req.Role.SelfAssignable() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid role"})
	}

	s.mu.Lock()
	if s.byEmailLocked(req.Email) != nil {
		s.mu.Unlock()
		return c.JSON(http.StatusConflict, map[string]string{"error": "user already exists", "code": "ACCOUNT_EXISTS"})
	}
	hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	u := &user{
		ID: s.nextID("u"), Name: req.Name, Email: req.Email, PhotoURL: req.PhotoURL,
		Role: req.Role, Coins: s.Economy.BonusFor(req.Role), Hash: hash, CreatedAt: time.Now().UTC(),
	}
	s.users[u.ID] = u
	omit := s.RegisterOmitsToken
	s.mu.Unlock()

	if omit {
		return c.JSON(http.StatusCreated, map[string]any{"user": u.dto()})
	}
	return c.JSON(http.StatusCreated, map[string]any{"token": s.IssueToken(u.ID), "user": u.dto()})
}

func (s *Server) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	s.mu.Lock()
	u := s.byEmailLocked(req.Email)
	s.mu.Unlock()
	if u == nil || bcrypt.CompareHashAndPassword(u.Hash, []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}
	return c.JSON(http.StatusOK, map[string]any{"token": s.IssueToken(u.ID), "user": u.dto()})
}

func (s *Server) googleLogin(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		Email       string `json:"email"`
		PhotoURL    string `json:"photoUrl"`
		ExternalUID string `json:"externalUid"`
	}
	if err := c.Bind(&req); err != nil || req.ExternalUID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}

	s.mu.Lock()
	var u *user
	for _, candidate := range s.users {
		if candidate.ExternalUID == req.ExternalUID {
			u = candidate
		}
	}
	isNew := u == nil
	if isNew {
		u = &user{
			ID: s.nextID("u"), Name: req.Name, Email: req.Email, PhotoURL: req.PhotoURL,
			Role: domain.RoleWorker, ExternalUID: req.ExternalUID, Pending: true, CreatedAt: time.Now().UTC(),
		}
		s.users[u.ID] = u
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]any{"token": s.IssueToken(u.ID), "user": u.dto(), "isNewUser": isNew})
}

func (s *Server) verify(c echo.Context) error {
	s.mu.Lock()
	if s.failVerify > 0 {
		s.failVerify--
		s.mu.Unlock()
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "unavailable"})
	}
	u := s.users[c.Get("uid").(string)]
	dto := u.dto()
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]any{"user": dto})
}

// ── Users ─────────────────────────────────────────────────────────────────────

func (s *Server) updateProfile(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		PhotoURL string `json:"photoUrl"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}
	if req.Name != "" {
		u.Name = req.Name
	}
	if req.PhotoURL != "" {
		u.PhotoURL = req.PhotoURL
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) updateRole(c echo.Context) error {
	var req struct {
		Role domain.Role `json:"role"`
	}
	if err := c.Bind(&req); err != nil || !req.Role.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid role"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}
	u.Role = req.Role
	if u.Pending {
		u.Pending = false
		u.Coins += s.Economy.BonusFor(req.Role)
	}
	return c.NoContent(http.StatusNoContent)
}

// ── Tasks & submissions ───────────────────────────────────────────────────────

func (s *Server) listTasks(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getTask(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "task not found"})
	}
	return c.JSON(http.StatusOK, t)
}

func (s *Server) createTask(c echo.Context) error {
	var draft domain.TaskDraft
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[c.Get("uid").(string)]
	if u.Role != domain.RoleBuyer {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "buyers only"})
	}
	if !draft.CompletionDate.After(time.Now()) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "completion date passed", "code": "DEADLINE_PASSED"})
	}
	cost := s.Economy.TaskCost(draft.RequiredWorkers, draft.PayableAmount)
	if cost > u.Coins {
		return c.JSON(http.StatusPaymentRequired, map[string]string{"error": "not enough coins", "code": "INSUFFICIENT_COINS"})
	}
	u.Coins -= cost
	t := &domain.Task{
		ID: s.nextID("t"), Title: draft.Title, Detail: draft.Detail, RequiredWorkers: draft.RequiredWorkers,
		PayableAmount: draft.PayableAmount, CompletionDate: draft.CompletionDate, SubmissionInfo: draft.SubmissionInfo,
		ImageURL: draft.ImageURL, BuyerID: u.ID, BuyerName: u.Name, BuyerEmail: u.Email, CreatedAt: time.Now().UTC(),
	}
	s.tasks[t.ID] = t
	return c.JSON(http.StatusCreated, t)
}

func (s *Server) deleteTask(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "task not found"})
	}
	if owner, ok := s.users[t.BuyerID]; ok {
		owner.Coins += t.RequiredWorkers * t.PayableAmount
	}
	delete(s.tasks, t.ID)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) submit(c echo.Context) error {
	var req struct {
		TaskID            string `json:"taskId"`
		SubmissionDetails string `json:"submissionDetails"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[req.TaskID]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "task not found"})
	}
	w := s.users[c.Get("uid").(string)]
	sub := &domain.Submission{
		ID: s.nextID("s"), TaskID: t.ID, TaskTitle: t.Title, PayableAmount: t.PayableAmount,
		WorkerEmail: w.Email, WorkerName: w.Name, BuyerName: t.BuyerName, BuyerEmail: t.BuyerEmail,
		SubmissionDetails: req.SubmissionDetails, Status: domain.SubmissionPending, SubmittedAt: time.Now().UTC(),
	}
	s.submissions[sub.ID] = sub
	return c.JSON(http.StatusCreated, sub)
}

func (s *Server) approveSubmission(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "submission not found"})
	}
	if sub.Status != domain.SubmissionPending {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "already reviewed"})
	}
	sub.Status = domain.SubmissionApproved
	if w := s.byEmailLocked(sub.WorkerEmail); w != nil {
		w.Coins += sub.PayableAmount
	}
	return c.NoContent(http.StatusNoContent)
}

// ── Wallet ────────────────────────────────────────────────────────────────────

func (s *Server) withdraw(c echo.Context) error {
	var req domain.WithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[c.Get("uid").(string)]
	if req.WithdrawalCoin < s.Economy.MinWithdrawalCoins {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "below minimum", "code": "BELOW_MINIMUM"})
	}
	if req.WithdrawalCoin > u.Coins {
		return c.JSON(http.StatusPaymentRequired, map[string]string{"error": "not enough coins", "code": "INSUFFICIENT_COINS"})
	}
	u.Coins -= req.WithdrawalCoin
	amount, _ := s.Economy.CoinsToDollars(req.WithdrawalCoin).Float64()
	return c.JSON(http.StatusCreated, domain.Withdrawal{
		ID: s.nextID("w"), WorkerEmail: u.Email, WorkerName: u.Name, WithdrawalCoin: req.WithdrawalCoin,
		WithdrawalAmount: amount, PaymentSystem: req.PaymentSystem, AccountNumber: req.AccountNumber,
		Status: domain.WithdrawalPending, CreatedAt: time.Now().UTC(),
	})
}

func (s *Server) listPackages(c echo.Context) error {
	return c.JSON(http.StatusOK, s.packages)
}

func (s *Server) purchase(c echo.Context) error {
	var req domain.PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.packages {
		if p.ID == req.PackageID {
			u := s.users[c.Get("uid").(string)]
			u.Coins += p.Coins
			return c.JSON(http.StatusCreated, domain.Payment{
				ID: s.nextID("p"), BuyerEmail: u.Email, BuyerName: u.Name,
				CoinsPurchased: p.Coins, AmountPaid: p.Price, PaymentDate: time.Now().UTC(),
			})
		}
	}
	return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown package"})
}

func (s *Server) emptyList(c echo.Context) error {
	return c.JSON(http.StatusOK, []any{})
}

func (s *Server) stats(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[c.Get("uid").(string)]
	if string(u.Role) != c.Param("role") {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "wrong role"})
	}
	return c.JSON(http.StatusOK, map[string]int{"coins": u.Coins})
}

func (s *Server) unreadCount(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]int{"count": s.unread[c.Get("uid").(string)]})
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (s *Server) byEmailLocked(email string) *user {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (s *Server) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func (s *Server) sign(id string, exp time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
	}
	t, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return t
}
