package validate

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SignupRequest is the self-serve registration payload of a client user.
type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
}

// LoginRequest is the local sign-in payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AcceptInviteRequest completes a local invitation by choosing a password.
type AcceptInviteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// InviteRequest is the employee invitation payload.
type InviteRequest struct {
	Email string `json:"email"`
}

// Signup checks a registration.
func Signup(in *SignupRequest) Result {
	trim(&in.Email)
	trim(&in.CompanyName)
	trim(&in.Industry)

	return newResult(validation.ValidateStruct(in,
		validation.Field(&in.Email, email()...),
		validation.Field(&in.Password, password()...),
		validation.Field(&in.CompanyName, requiredText("Company name", MaxNameLength)...),
		validation.Field(&in.Industry, validation.RuneLength(0, MaxIndustryLength).Error("Industry must be at most 100 characters")),
	))
}

// Login checks a sign-in. Password rules are not applied so that accounts
// created under older rules can still sign in.
func Login(in *LoginRequest) Result {
	trim(&in.Email)

	return newResult(validation.ValidateStruct(in,
		validation.Field(&in.Email, email()...),
		validation.Field(&in.Password, validation.Required.Error("Password is required")),
	))
}

// AcceptInvite checks an invitation acceptance.
func AcceptInvite(in *AcceptInviteRequest) Result {
	trim(&in.Token)

	return newResult(validation.ValidateStruct(in,
		validation.Field(&in.Token,
			validation.Required.Error("Token is required"),
			validation.Match(tokenRE).Error("Token is malformed"),
		),
		validation.Field(&in.Password, password()...),
	))
}

// EmployeeInvite checks an invitation.
func EmployeeInvite(in *InviteRequest) Result {
	trim(&in.Email)

	return newResult(validation.ValidateStruct(in,
		validation.Field(&in.Email, email()...),
	))
}
