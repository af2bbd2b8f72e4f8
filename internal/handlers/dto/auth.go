package dto

// Form fields are only length-checked here. Missing values are reported by
// the services so that every form shows the same messages.

type RegisterForm struct {
	Username string `form:"username" binding:"max=50"`
	Email    string `form:"email" binding:"max=255"`
	Password string `form:"password" binding:"max=72"`
}

type LoginForm struct {
	Email    string `form:"email" binding:"max=255"`
	Password string `form:"password" binding:"max=72"`
}

type ProfileForm struct {
	Username  string `form:"username" binding:"max=50"`
	AvatarURL string `form:"avatar_url" binding:"omitempty,url,max=500"`
}
