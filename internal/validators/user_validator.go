package validators

type UserRegisterRequest struct {
	FirstName    string `json:"first_name" validate:"required,min=2,max=50"`
	LastName     string `json:"last_name" validate:"required,min=2,max=50"`
	Email        string `json:"email" validate:"required,email"`
	UserType     string `json:"user_type" validate:"required,oneof=customer provider"`
	ReferralCode string `json:"referral_code" validate:"omitempty,referral_code"`
}

type ServiceCreateRequest struct {
	Title    string `json:"title" validate:"required,min=3,max=120"`
	Category string `json:"category" validate:"omitempty,max=60"`
	Price    int64  `json:"price" validate:"required,minor_amount"`
}
