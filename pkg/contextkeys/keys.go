package contextkeys

type contextKey string

const (
	// UserCodeKey — непрозрачный код аутентифицированного пользователя
	// (заявитель или утверждающий). Движок его не проверяет, только читает.
	UserCodeKey contextKey = "UserCode"
)
