package integration_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// MockBattleNet is an httptest stand-in for the Battle.net OAuth and profile
// APIs. Authorization codes map to access tokens; per-endpoint failure
// switches simulate sub-resource outages.
type MockBattleNet struct {
	server *httptest.Server

	mu            sync.Mutex
	codes         map[string]string // authorization code -> access token
	tokenCalls    int
	mediaStatus   int
	mythicStatus  int
	summaryStatus int
	profileStatus int
}

func NewMockBattleNet() *MockBattleNet {
	m := &MockBattleNet{
		codes: map[string]string{
			"abc123": "tok1",
		},
		mediaStatus:   http.StatusOK,
		mythicStatus:  http.StatusOK,
		summaryStatus: http.StatusOK,
		profileStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", m.handleToken)
	mux.HandleFunc("/oauth/userinfo", m.handleUserInfo)
	mux.HandleFunc("/profile/user/wow", m.handleProfile)
	mux.HandleFunc("/profile/wow/character/area-52/foo/character-media", m.handleMedia)
	mux.HandleFunc("/profile/wow/character/area-52/foo/mythic-keystone-profile", m.handleMythic)
	mux.HandleFunc("/profile/wow/character/area-52/foo", m.handleSummary)

	m.server = httptest.NewServer(mux)
	return m
}

func (m *MockBattleNet) URL() string {
	return m.server.URL
}

func (m *MockBattleNet) Close() {
	m.server.Close()
}

func (m *MockBattleNet) TokenCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokenCalls
}

func (m *MockBattleNet) SetMediaStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mediaStatus = status
}

func (m *MockBattleNet) SetMythicStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mythicStatus = status
}

func (m *MockBattleNet) SetProfileStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profileStatus = status
}

func (m *MockBattleNet) handleToken(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.tokenCalls++
	m.mu.Unlock()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body := make([]byte, r.ContentLength)
	r.Body.Read(body)
	params, _ := url.ParseQuery(string(body))

	if params.Get("grant_type") != "authorization_code" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	m.mu.Lock()
	token, ok := m.codes[params.Get("code")]
	m.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   86399,
	})
}

func (m *MockBattleNet) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sub":       "123456789",
		"id":        123456789,
		"battletag": "Foo#1234",
	})
}

func (m *MockBattleNet) handleProfile(w http.ResponseWriter, r *http.Request) {
	if !m.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		return
	}

	m.mu.Lock()
	status := m.profileStatus
	m.mu.Unlock()
	if status != http.StatusOK {
		http.Error(w, "upstream error", status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id": 123456789,
		"wow_accounts": []map[string]interface{}{
			{
				"characters": []map[string]interface{}{
					{
						"name":  "Foo",
						"level": 80,
						"realm": map[string]string{"slug": "area-52"},
					},
					{
						"name":  "Lowbie",
						"level": 23,
						"realm": map[string]string{"slug": "area-52"},
					},
				},
			},
		},
	})
}

func (m *MockBattleNet) handleMedia(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	status := m.mediaStatus
	m.mu.Unlock()
	if status != http.StatusOK {
		http.Error(w, "upstream error", status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"assets": []map[string]string{
			{"key": "avatar", "value": "http://img"},
		},
	})
}

func (m *MockBattleNet) handleMythic(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	status := m.mythicStatus
	m.mu.Unlock()
	if status != http.StatusOK {
		http.Error(w, "upstream error", status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current_mythic_rating": map[string]float64{"rating": 1500},
	})
}

func (m *MockBattleNet) handleSummary(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	status := m.summaryStatus
	m.mu.Unlock()
	if status != http.StatusOK {
		http.Error(w, "upstream error", status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"character_class":     map[string]string{"name": "Mage"},
		"equipped_item_level": 450,
	})
}

func (m *MockBattleNet) authorized(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && auth[7:] != ""
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
