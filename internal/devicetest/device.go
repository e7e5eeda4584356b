// Package devicetest runs an in-process device that speaks both handshake
// schemes, for tests of everything above the transport.
package devicetest

import (
	"bytes"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // mandated by the device protocol
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/tapo-protocol/tapo-go/pkg/cipher"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// Handler answers one logical command. childID is empty for commands to the
// device itself.
type Handler func(childID string, params json.RawMessage) (any, wire.Status)

// Call is one command the device received.
type Call struct {
	Method  wire.Method
	ChildID string
	Params  json.RawMessage
	Seq     int32
}

// Config configures a fake device.
type Config struct {
	Username string
	Password string

	// KLAP and Passthrough select which schemes the device accepts. When both
	// are false the device accepts both.
	KLAP        bool
	Passthrough bool

	// TimeoutCookie is sent as the TIMEOUT cookie when non-zero (seconds).
	TimeoutCookie int
}

// Device is a fake device served by httptest.
type Device struct {
	t      testing.TB
	config Config
	server *httptest.Server

	mu           sync.Mutex
	handlers     map[wire.Method]Handler
	sessions     map[string]*fakeSession
	calls        []Call
	handshakes   int
	expireNext   int
	failNext     wire.Status
	failNextLeft int
}

type fakeSession struct {
	klap   *cipher.KlapCipher
	local  []byte
	remote []byte
	pass   *cipher.PassthroughCipher
	token  string
}

// New starts a device and registers its shutdown with t.Cleanup.
func New(t testing.TB, config Config) *Device {
	t.Helper()
	if !config.KLAP && !config.Passthrough {
		config.KLAP = true
		config.Passthrough = true
	}
	d := &Device{
		t:        t,
		config:   config,
		handlers: make(map[wire.Method]Handler),
		sessions: make(map[string]*fakeSession),
	}
	d.Handle(wire.MethodGetDeviceInfo, func(string, json.RawMessage) (any, wire.Status) {
		return map[string]any{"device_id": "fake", "model": "P100", "device_on": false}, wire.StatusSuccess
	})
	d.server = httptest.NewServer(http.HandlerFunc(d.serve))
	t.Cleanup(d.server.Close)
	return d
}

// Address returns host:port for the client.
func (d *Device) Address() string {
	u, _ := url.Parse(d.server.URL)
	return u.Host
}

// Handle installs h for method, replacing any previous handler.
func (d *Device) Handle(method wire.Method, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[method] = h
}

// Result installs a handler that always returns result.
func (d *Device) Result(method wire.Method, result any) {
	d.Handle(method, func(string, json.RawMessage) (any, wire.Status) {
		return result, wire.StatusSuccess
	})
}

// ExpireNext makes the next n commands fail as if the session timed out.
// The affected sessions are forgotten, so the client must handshake again.
func (d *Device) ExpireNext(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expireNext = n
}

// FailNext answers the next n commands with status.
func (d *Device) FailNext(n int, status wire.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = status
	d.failNextLeft = n
}

// Handshakes returns how many handshakes completed.
func (d *Device) Handshakes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handshakes
}

// Calls returns the commands received so far.
func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// CallsTo returns the commands received for method.
func (d *Device) CallsTo(method wire.Method) []Call {
	var out []Call
	for _, c := range d.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (d *Device) serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch r.URL.Path {
	case "/app/handshake1":
		if !d.config.KLAP {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		d.handshake1(w, body)
	case "/app/handshake2":
		d.handshake2(w, r, body)
	case "/app/request":
		d.klapRequest(w, r, body)
	case "/app":
		if !d.config.Passthrough {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		d.passthrough(w, r, body)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (d *Device) authHash() []byte {
	return cipher.AuthHash(d.config.Username, d.config.Password)
}

func (d *Device) newSessionID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func (d *Device) setCookies(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{Name: "TP_SESSIONID", Value: id})
	if d.config.TimeoutCookie > 0 {
		http.SetCookie(w, &http.Cookie{Name: "TIMEOUT", Value: strconv.Itoa(d.config.TimeoutCookie)})
	}
}

func (d *Device) lookup(r *http.Request) (*fakeSession, string) {
	ck, err := r.Cookie("TP_SESSIONID")
	if err != nil {
		return nil, ""
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions[ck.Value], ck.Value
}

func (d *Device) handshake1(w http.ResponseWriter, local []byte) {
	if len(local) != cipher.SeedSize {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	remote := make([]byte, cipher.SeedSize)
	_, _ = rand.Read(remote)

	id := d.newSessionID()
	d.mu.Lock()
	d.sessions[id] = &fakeSession{local: local, remote: remote}
	d.mu.Unlock()

	d.setCookies(w, id)
	_, _ = w.Write(append(remote, cipher.ServerProof(local, remote, d.authHash())...))
}

func (d *Device) handshake2(w http.ResponseWriter, r *http.Request, proof []byte) {
	s, _ := d.lookup(r)
	if s == nil || !bytes.Equal(proof, cipher.ClientProof(s.local, s.remote, d.authHash())) {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	d.mu.Lock()
	s.klap = cipher.NewKlapCipher(s.local, s.remote, d.authHash())
	d.handshakes++
	d.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (d *Device) klapRequest(w http.ResponseWriter, r *http.Request, body []byte) {
	s, id := d.lookup(r)
	if s == nil || s.klap == nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	seq64, err := strconv.ParseInt(r.URL.Query().Get("seq"), 10, 32)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	seq := int32(seq64)
	if d.consumeExpiry(id) {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	sealer := klapSealer{s.klap}
	req, route, err := wire.DecodeRequest(sealer, &wire.Envelope{Variant: wire.VariantKLAP, Seq: seq, Body: body})
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	resp := d.dispatch(req, route, seq)
	out, err := wire.EncodeResponse(sealer, seq, req.Method, resp, route)
	if err != nil {
		d.t.Errorf("devicetest: encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(out)
}

func (d *Device) passthrough(w http.ResponseWriter, r *http.Request, body []byte) {
	var outer wire.Request
	if err := json.Unmarshal(body, &outer); err != nil {
		writeJSON(w, &wire.Response{ErrorCode: wire.StatusJSONDecodeFailed})
		return
	}

	if outer.Method == wire.MethodHandshake {
		d.passthroughHandshake(w, &outer)
		return
	}
	if outer.Method != wire.MethodSecurePassthrough {
		writeJSON(w, &wire.Response{ErrorCode: wire.StatusUnknownMethod})
		return
	}

	s, id := d.lookup(r)
	if s == nil || s.pass == nil {
		writeJSON(w, &wire.Response{ErrorCode: wire.StatusSessionTimeout})
		return
	}
	sealer := passSealer{s.pass}
	req, route, err := wire.DecodeRequest(sealer, &wire.Envelope{Variant: wire.VariantPassthrough, Body: body})
	if err != nil {
		writeJSON(w, &wire.Response{ErrorCode: wire.StatusJSONDecodeFailed})
		return
	}

	var resp *wire.Response
	switch {
	case req.Method == wire.MethodLoginDevice:
		resp = d.login(s, req)
	case r.URL.Query().Get("token") != s.token || s.token == "":
		resp = &wire.Response{ErrorCode: wire.StatusSessionParamError}
	case d.consumeExpiry(id):
		writeJSON(w, &wire.Response{ErrorCode: wire.StatusSessionTimeout})
		return
	default:
		resp = d.dispatch(req, route, 0)
	}

	out, err := wire.EncodeResponse(sealer, 0, req.Method, resp, route)
	if err != nil {
		d.t.Errorf("devicetest: encode response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(out)
}

func (d *Device) passthroughHandshake(w http.ResponseWriter, req *wire.Request) {
	var p struct {
		Key string `json:"key"`
	}
	if err := req.DecodeParams(&p); err != nil {
		writeJSON(w, &wire.Response{ErrorCode: wire.StatusInvalidParams})
		return
	}
	pub, err := cipher.ParsePublicKeyPEM(p.Key)
	if err != nil {
		writeJSON(w, &wire.Response{ErrorCode: wire.StatusInvalidPublicKey})
		return
	}
	keyIV := make([]byte, 32)
	_, _ = rand.Read(keyIV)
	blob, err := cipher.EncryptSessionKey(pub, keyIV[:16], keyIV[16:])
	if err != nil {
		d.t.Errorf("devicetest: encrypt session key: %v", err)
		return
	}
	pc, err := cipher.NewPassthroughCipher(keyIV[:16], keyIV[16:])
	if err != nil {
		d.t.Errorf("devicetest: passthrough cipher: %v", err)
		return
	}

	id := d.newSessionID()
	d.mu.Lock()
	d.sessions[id] = &fakeSession{pass: pc}
	d.mu.Unlock()

	d.setCookies(w, id)
	resp, _ := wire.NewResponse(map[string]string{"key": blob})
	writeJSON(w, resp)
}

func (d *Device) login(s *fakeSession, req *wire.Request) *wire.Response {
	var p struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := req.DecodeParams(&p); err != nil {
		return &wire.Response{ErrorCode: wire.StatusInvalidParams}
	}
	digest := sha1.Sum([]byte(d.config.Username)) //nolint:gosec
	wantUser := base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(digest[:])))
	wantPass := base64.StdEncoding.EncodeToString([]byte(d.config.Password))
	if p.Username != wantUser || p.Password != wantPass {
		return &wire.Response{ErrorCode: wire.StatusLoginFailed}
	}

	d.mu.Lock()
	s.token = d.newSessionID()
	d.handshakes++
	token := s.token
	d.mu.Unlock()

	resp, _ := wire.NewResponse(map[string]string{"token": token})
	return resp
}

func (d *Device) consumeExpiry(sessionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.expireNext == 0 {
		return false
	}
	d.expireNext--
	delete(d.sessions, sessionID)
	return true
}

func (d *Device) dispatch(req *wire.Request, route wire.Routing, seq int32) *wire.Response {
	d.mu.Lock()
	d.calls = append(d.calls, Call{Method: req.Method, ChildID: route.ChildID, Params: req.Params, Seq: seq})
	h := d.handlers[req.Method]
	if d.failNextLeft > 0 {
		d.failNextLeft--
		status := d.failNext
		d.mu.Unlock()
		return &wire.Response{ErrorCode: status}
	}
	d.mu.Unlock()

	if h == nil {
		return &wire.Response{ErrorCode: wire.StatusUnknownMethod}
	}
	result, status := h(route.ChildID, req.Params)
	if status != wire.StatusSuccess {
		return &wire.Response{ErrorCode: status}
	}
	if result == nil {
		return &wire.Response{ErrorCode: wire.StatusSuccess}
	}
	resp, err := wire.NewResponse(result)
	if err != nil {
		d.t.Errorf("devicetest: encode result: %v", err)
		return &wire.Response{ErrorCode: wire.StatusJSONEncodeFailed}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, resp *wire.Response) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type klapSealer struct{ c *cipher.KlapCipher }

func (k klapSealer) Variant() wire.Variant { return wire.VariantKLAP }
func (k klapSealer) Seal(seq int32, p []byte) ([]byte, error) { return k.c.Encrypt(seq, p) }
func (k klapSealer) Open(seq int32, c []byte) ([]byte, error) { return k.c.Decrypt(seq, c) }

type passSealer struct{ c *cipher.PassthroughCipher }

func (p passSealer) Variant() wire.Variant { return wire.VariantPassthrough }
func (p passSealer) Seal(_ int32, b []byte) ([]byte, error) { return p.c.Encrypt(b) }
func (p passSealer) Open(_ int32, b []byte) ([]byte, error) { return p.c.Decrypt(b) }
