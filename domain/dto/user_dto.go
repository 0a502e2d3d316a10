package dto

type ReqLogin struct {
	UserName string `json:"user_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResLogin struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}
