package memory

import (
	"context"
	"database/sql"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/scan"
	alertDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/alert"
	authDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/auth"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/portfolio"
	authinfra "github.com/engenhariadahumanidade/RAPERStockDASH/internal/infrastructure/auth"
)

// Store is the in-memory database used when no DSN is configured. It backs
// the same ports as the postgres repos.
type Store struct {
	mu       sync.RWMutex
	users    map[string]authDomain.User // id -> user
	byEmail  map[string]string          // email -> id
	allowed  map[string]time.Time       // email -> added at
	settings map[string]*alertDomain.Settings
	stocks   map[int64]portfolio.Stock
	logs     []alertDomain.LogEntry
	idSeq    int64
	logSeq   int64
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]authDomain.User),
		byEmail:  make(map[string]string),
		allowed:  make(map[string]time.Time),
		settings: make(map[string]*alertDomain.Settings),
		stocks:   make(map[int64]portfolio.Stock),
		now:      time.Now,
	}
}

// SeedUsers creates the demo accounts for DB-less runs.
func (s *Store) SeedUsers() {
	hash := func(p string) string {
		h, err := authinfra.HashPassword(p)
		if err != nil {
			return p
		}
		return h
	}
	s.addUser("admin@example.com", hash("password123"), "Admin", authDomain.RoleAdmin)
	s.addUser("user@example.com", hash("password123"), "User", authDomain.RoleUser)
}

func (s *Store) addUser(email, password, name string, role authDomain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.users[id] = authDomain.User{
		ID:        id,
		Email:     email,
		Name:      name,
		Role:      role,
		Status:    authDomain.StatusActive,
		Password:  password,
		CreatedAt: s.now(),
	}
	s.byEmail[email] = id
}

// --- auth.UserRepository ---

func (s *Store) FindByEmail(ctx context.Context, email string) (authDomain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return authDomain.User{}, sql.ErrNoRows
	}
	return s.users[id], nil
}

func (s *Store) FindByID(ctx context.Context, id string) (authDomain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return authDomain.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *Store) Create(ctx context.Context, u authDomain.User) (authDomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = s.now()
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return u, nil
}

// --- auth.AllowedUserRepository ---

func (s *Store) IsAllowed(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.allowed[email]
	return ok, nil
}

func (s *Store) Add(ctx context.Context, email string) (authDomain.AllowedUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.allowed[email]
	if !ok {
		at = s.now()
		s.allowed[email] = at
	}
	return authDomain.AllowedUser{Email: email, CreatedAt: at}, nil
}

func (s *Store) Remove(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.allowed, email)
	return nil
}

func (s *Store) List(ctx context.Context) ([]authDomain.AllowedUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]authDomain.AllowedUser, 0, len(s.allowed))
	for email, at := range s.allowed {
		out = append(out, authDomain.AllowedUser{Email: email, CreatedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- settings ---

func (s *Store) FindByUserID(ctx context.Context, userID string) (alertDomain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.settings[userID]; ok {
		return *cur, nil
	}
	def := alertDomain.NewDefaultSettings(userID)
	s.idSeq++
	def.ID = s.idSeq
	def.CreatedAt = s.now()
	def.UpdatedAt = def.CreatedAt
	s.settings[userID] = &def
	return def, nil
}

func (s *Store) Save(ctx context.Context, in alertDomain.Settings) (alertDomain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.settings[in.UserID]
	if !ok {
		return alertDomain.Settings{}, sql.ErrNoRows
	}
	cur.WebhookURL = in.WebhookURL
	cur.PhoneNumber = in.PhoneNumber
	cur.AutoAlerts = in.AutoAlerts
	cur.MasterSwitch = in.MasterSwitch
	cur.CustomMessage = in.CustomMessage
	cur.ScanInterval = in.ScanInterval
	cur.WorkStart = in.WorkStart
	cur.WorkEnd = in.WorkEnd
	cur.UpdatedAt = s.now()
	return *cur, nil
}

func (s *Store) UpdateAlertState(ctx context.Context, settingsID int64, hash string, sentAt time.Time, fullMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.settings {
		if cur.ID == settingsID {
			cur.LastAlertHash = hash
			t := sentAt
			cur.LastAlertTime = &t
			cur.LastFullMessage = fullMessage
			cur.UpdatedAt = s.now()
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *Store) AdminSettings(ctx context.Context) (*alertDomain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var admin *authDomain.User
	for _, u := range s.users {
		if u.Role == authDomain.RoleAdmin {
			if admin == nil || u.CreatedAt.Before(admin.CreatedAt) {
				cp := u
				admin = &cp
			}
		}
	}
	if admin == nil {
		return nil, nil
	}
	cur, ok := s.settings[admin.ID]
	if !ok {
		return nil, nil
	}
	cp := *cur
	return &cp, nil
}

func (s *Store) FirstSettings(ctx context.Context) (*alertDomain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var first *alertDomain.Settings
	for _, cur := range s.settings {
		if first == nil || cur.ID < first.ID {
			first = cur
		}
	}
	if first == nil {
		return nil, nil
	}
	cp := *first
	return &cp, nil
}

func (s *Store) UpdateGlobalSettings(ctx context.Context, webhookURL string, scanInterval int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.settings {
		cur.WebhookURL = webhookURL
		cur.ScanInterval = scanInterval
		cur.UpdatedAt = s.now()
	}
	return nil
}

func (s *Store) ListAutoAlertTargets(ctx context.Context) ([]scan.Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []scan.Target
	for userID, cur := range s.settings {
		if !cur.AutoAlerts {
			continue
		}
		t := scan.Target{UserID: userID}
		if u, ok := s.users[userID]; ok {
			t.UserName = u.Name
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// --- stocks ---

func (s *Store) ListByUser(ctx context.Context, userID string) ([]portfolio.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []portfolio.Stock
	for _, st := range s.stocks {
		if st.UserID == userID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (s *Store) Upsert(ctx context.Context, in portfolio.Stock) (portfolio.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, st := range s.stocks {
		if st.UserID == in.UserID && st.Symbol == in.Symbol {
			st.Quantity = in.Quantity
			st.AveragePrice = in.AveragePrice
			s.stocks[id] = st
			return st, nil
		}
	}
	s.idSeq++
	in.ID = s.idSeq
	in.CreatedAt = s.now()
	s.stocks[in.ID] = in
	return in, nil
}

func (s *Store) Delete(ctx context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stocks[id]
	if !ok || st.UserID != userID {
		return sql.ErrNoRows
	}
	delete(s.stocks, id)
	return nil
}

// --- system logs ---

func (s *Store) Append(ctx context.Context, e alertDomain.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logSeq++
	e.ID = strconv.FormatInt(s.logSeq, 10)
	if e.Level == "" {
		e.Level = alertDomain.LevelInfo
	}
	e.CreatedAt = s.now()
	s.logs = append(s.logs, e)
	return nil
}

func (s *Store) ListRecent(ctx context.Context, userID string, limit int) ([]alertDomain.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []alertDomain.LogEntry
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if s.logs[i].UserID == userID {
			out = append(out, s.logs[i])
		}
	}
	return out, nil
}

func (s *Store) LastScanAt(ctx context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.logs) - 1; i >= 0; i-- {
		if strings.Contains(s.logs[i].Message, scan.LogMarker) {
			t := s.logs[i].CreatedAt
			return &t, nil
		}
	}
	return nil, nil
}
