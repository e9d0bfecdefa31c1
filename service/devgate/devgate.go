// Package devgate is an in-memory stand-in for the Matcha backend: the
// REST collaborators plus the live ws channel, enough to exercise the
// sync kit without the production stack. Not for production use.
package devgate

import (
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"matchakit/logger"
	"matchakit/module/chat"
	"matchakit/module/user"
	"matchakit/tools/security"
)

type Server struct {
	secret []byte
	engine *gin.Engine
	hub    *hub

	mu       sync.Mutex
	users    map[uuid.UUID]user.User
	byEmail  map[string]uuid.UUID
	msgs     []chat.Message
	lastSeen map[uuid.UUID]time.Time

	upgrader websocket.Upgrader
}

func New(secret []byte) *Server {
	s := &Server{
		secret:   secret,
		hub:      newHub(),
		users:    make(map[uuid.UUID]user.User),
		byEmail:  make(map[string]uuid.UUID),
		lastSeen: make(map[uuid.UUID]time.Time),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", s.login)
	v1.GET("/ws/chat", s.handleWS)

	authed := v1.Group("", s.authRequired)
	authed.GET("/auth/me", s.me)
	authed.GET("/users/:id", s.getUser)
	authed.GET("/matches", s.matches)
	authed.GET("/users/:id/messages", s.listMessages)
	authed.POST("/users/:id/messages", s.sendMessage)
	authed.PATCH("/users/:id/messages/read", s.markRead)
	authed.GET("/presence/:id", s.presence)

	s.engine = r
}

// Handler exposes the gateway as an http.Handler for httptest and the
// demo binary.
func (s *Server) Handler() http.Handler { return s.engine }

// AddUser registers a user the gateway will authenticate by email, any
// password accepted. Returns the assigned id.
func (s *Server) AddUser(email, firstName, lastName string) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = user.User{ID: id, Email: email, FirstName: firstName, LastName: lastName}
	s.byEmail[strings.ToLower(email)] = id
	s.lastSeen[id] = time.Now().UTC()
	return id
}

// IssueToken mints a credential for a seeded user.
func (s *Server) IssueToken(id uuid.UUID) (string, error) {
	tok, _, err := security.Generate(security.DefaultOptions(s.secret), id.String())
	return tok, err
}

// ---- auth ----

func (s *Server) authenticate(token string) (uuid.UUID, bool) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return uuid.Nil, false
	}
	claims, err := security.Verify(security.DefaultOptions(s.secret), token)
	if err != nil {
		return uuid.Nil, false
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	s.mu.Lock()
	_, known := s.users[id]
	s.mu.Unlock()
	return id, known
}

func (s *Server) authRequired(c *gin.Context) {
	id, ok := s.authenticate(c.GetHeader("Authorization"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Set("user_id", id)
	c.Next()
}

func currentUser(c *gin.Context) uuid.UUID {
	v, _ := c.Get("user_id")
	id, _ := v.(uuid.UUID)
	return id
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mu.Lock()
	id, ok := s.byEmail[strings.ToLower(req.Email)]
	u := s.users[id]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
		return
	}
	tok, err := s.IssueToken(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tok, "user": u})
}

func (s *Server) me(c *gin.Context) {
	s.mu.Lock()
	u := s.users[currentUser(c)]
	s.mu.Unlock()
	c.JSON(http.StatusOK, u)
}

func (s *Server) getUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	s.mu.Lock()
	u, ok := s.users[id]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) matches(c *gin.Context) {
	me := currentUser(c)
	s.mu.Lock()
	out := make([]user.User, 0, len(s.users))
	for id, u := range s.users {
		if id != me {
			out = append(out, u)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

// ---- chat ----

func (s *Server) listMessages(c *gin.Context) {
	me := currentUser(c)
	other, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	s.mu.Lock()
	out := make([]chat.Message, 0, 16)
	for _, m := range s.msgs {
		if (m.SenderID == me && m.ReceiverID == other) || (m.SenderID == other && m.ReceiverID == me) {
			out = append(out, m)
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

type sendReq struct {
	Content string `json:"content"`
}

func (s *Server) sendMessage(c *gin.Context) {
	me := currentUser(c)
	other, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, serr := s.storeMessage(me, other, req.Content)
	if serr != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": serr})
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) markRead(c *gin.Context) {
	me := currentUser(c)
	other, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	s.mu.Lock()
	n := 0
	for i := range s.msgs {
		if s.msgs[i].SenderID == other && s.msgs[i].ReceiverID == me && !s.msgs[i].IsRead {
			s.msgs[i].IsRead = true
			n++
		}
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (s *Server) presence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	s.mu.Lock()
	seen, ok := s.lastSeen[id]
	s.mu.Unlock()
	var lastSeen *time.Time
	if ok {
		lastSeen = &seen
	}
	c.JSON(http.StatusOK, chat.Presence{UserID: id, IsOnline: s.hub.isOnline(id), LastSeen: lastSeen})
}

// storeMessage validates, persists and returns the message. Returns a
// non-empty string describing the rejection otherwise.
func (s *Server) storeMessage(from, to uuid.UUID, content string) (chat.Message, string) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > chat.MaxContentLen {
		return chat.Message{}, "content must be 1-2000 characters"
	}
	if from == to {
		return chat.Message{}, "cannot message yourself"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[to]; !ok {
		return chat.Message{}, "user not found"
	}
	m := chat.Message{
		ID:         uuid.New(),
		SenderID:   from,
		ReceiverID: to,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	s.msgs = append(s.msgs, m)
	return m, ""
}

// ---- live channel ----

type incomingFrame struct {
	ToUserID string `json:"to_user_id"`
	Content  string `json:"content"`
}

func (s *Server) handleWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = c.GetHeader("Authorization")
	}
	userID, ok := s.authenticate(token)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("[devgate] upgrade failed: %v", err)
		return
	}
	client := s.hub.register(userID, ws)
	defer func() {
		s.hub.unregister(userID, client)
		s.mu.Lock()
		s.lastSeen[userID] = time.Now().UTC()
		s.mu.Unlock()
		_ = ws.Close()
	}()

	for {
		var in incomingFrame
		if err := ws.ReadJSON(&in); err != nil {
			return
		}
		if msg := s.processIncoming(userID, in); msg != "" {
			s.hub.sendToUser(userID, gin.H{"type": "error", "error": msg})
		}
	}
}

func (s *Server) processIncoming(from uuid.UUID, in incomingFrame) string {
	to, err := uuid.Parse(strings.TrimSpace(in.ToUserID))
	if err != nil {
		return "invalid to_user_id"
	}
	m, serr := s.storeMessage(from, to, in.Content)
	if serr != "" {
		return serr
	}
	event := gin.H{"type": "message", "data": m}
	s.hub.sendToUser(from, event)
	s.hub.sendToUser(to, event)
	return ""
}
