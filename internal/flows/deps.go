package flows

import "github.com/MrEthical07/tubeAuth/credential"

// Deps groups flow dependency sets. The root engine builds this once and
// delegates each operation to the matching flow.
type Deps struct {
	Login          LoginDeps
	Refresh        RefreshDeps
	Logout         LogoutDeps
	Authorize      AuthorizeDeps
	Register       RegisterDeps
	ChangePassword ChangePasswordDeps
	UpdateProfile  UpdateProfileDeps
}

// TokenIssuer mints a fresh access/refresh pair for a user.
type TokenIssuer func(user *credential.User) (access, refresh string, err error)
