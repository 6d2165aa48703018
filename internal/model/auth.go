package model

// AuthStatus — метка состояния сессии пользователя.
type AuthStatus int

const (
	// AuthUnknown — проверка сессии ещё не завершена.
	AuthUnknown AuthStatus = iota
	// AuthAuthenticated — сессия подтверждена, пользователь известен.
	AuthAuthenticated
	// AuthAnonymous — сессии нет, работа ведётся с локальным хранилищем.
	AuthAnonymous
)

// AuthState — состояние аутентификации как размеченный вариант: User заполнен
// только при статусе AuthAuthenticated. Недопустимые комбинации булевых флагов
// («загрузка и пользователь одновременно») таким образом невыразимы.
type AuthState struct {
	Status AuthStatus
	User   *User
}

// Unknown возвращает состояние «проверка сессии в процессе».
func Unknown() AuthState {
	return AuthState{Status: AuthUnknown}
}

// Authenticated возвращает состояние подтверждённой сессии пользователя u.
func Authenticated(u User) AuthState {
	return AuthState{Status: AuthAuthenticated, User: &u}
}

// Anonymous возвращает состояние работы без сессии.
func Anonymous() AuthState {
	return AuthState{Status: AuthAnonymous}
}
