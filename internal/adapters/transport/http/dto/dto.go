package dto

type RegisterDTO struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,strongpwd"`
}

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type RequestEmailDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordDTO struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,strongpwd"`
}

type UserUpdateDTO struct {
	Username *string `json:"username" validate:"omitempty,alphanum,min=3,max=50"`
	Email    *string `json:"email"    validate:"omitempty,email"`
}

type AssignRoleDTO struct {
	UserID uint   `json:"user_id" validate:"required"`
	Role   string `json:"role"    validate:"required,oneof=user admin"`
}

type ContactDTO struct {
	Name      string `json:"name"      validate:"required,max=50"`
	Lastname  string `json:"lastname"  validate:"required,max=50"`
	Email     string `json:"email"     validate:"required,email"`
	Phone     string `json:"phone"     validate:"required,min=6,max=20"`
	Birthdate string `json:"birthdate" validate:"required,pastdate"`
	Notes     string `json:"notes"     validate:"max=250"`
}

type ContactUpdateDTO struct {
	Name      *string `json:"name"      validate:"omitempty,max=50"`
	Lastname  *string `json:"lastname"  validate:"omitempty,max=50"`
	Email     *string `json:"email"     validate:"omitempty,email"`
	Phone     *string `json:"phone"     validate:"omitempty,min=6,max=20"`
	Birthdate *string `json:"birthdate" validate:"omitempty,pastdate"`
	Notes     *string `json:"notes"     validate:"omitempty,max=250"`
}
