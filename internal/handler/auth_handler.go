package handler

import (
	"errors"
	"net/http"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/db"
	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/form"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/PILLIAKHIL0502/organizational-spotlight-app/internal/service"
)

const (
	sessionKeyEmail = "user_email"
	sessionKeyName  = "user_name"
	sessionKeyRole  = "user_role"
)

// RequestUser 是从会话还原出的请求上下文用户。
type RequestUser struct {
	Email string
	Name  string
	Role  string
}

// IsApprover reports whether the user carries the approver role.
func (u RequestUser) IsApprover() bool {
	return u.Role == db.RoleApprover
}

// Login 处理登录请求并写入会话。
func (a *API) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &input, "invalid login payload") {
		return
	}

	if msg := form.ValidateEmail(input.Email); msg != "" {
		respondError(c, http.StatusBadRequest, msg)
		return
	}

	user, err := a.users.Authenticate(input.Email, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		respondError(c, http.StatusInternalServerError, "login failed")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyEmail, user.Email)
	session.Set(sessionKeyName, user.Name)
	session.Set(sessionKeyRole, user.Role)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userJSON(user)})
}

// Logout 清除会话。
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me 返回当前登录用户。
func (a *API) Me(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": gin.H{
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
	}})
}

// AuthRequired 是一个简单的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		email, _ := session.Get(sessionKeyEmail).(string)
		if email == "" {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}

		name, _ := session.Get(sessionKeyName).(string)
		role, _ := session.Get(sessionKeyRole).(string)
		c.Set(contextKeyUser, RequestUser{Email: email, Name: name, Role: role})
		c.Next()
	}
}

// ApproverRequired 要求当前用户具备审核角色。
func ApproverRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsApprover() {
			respondError(c, http.StatusForbidden, "approver role required")
			c.Abort()
			return
		}
		c.Next()
	}
}

const contextKeyUser = "__request_user"

// currentUser 读取 AuthRequired 写入的请求用户。
func currentUser(c *gin.Context) RequestUser {
	if value, exists := c.Get(contextKeyUser); exists {
		if user, ok := value.(RequestUser); ok {
			return user
		}
	}
	return RequestUser{}
}

func userJSON(user *db.User) gin.H {
	payload := gin.H{
		"email":      user.Email,
		"name":       user.Name,
		"role":       user.Role,
		"created_at": user.CreatedAt,
	}
	if user.LastLogin != nil {
		payload["last_login"] = user.LastLogin
	}
	return payload
}
