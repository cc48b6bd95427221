package domain

import "time"

// ResetRequest is a short-lived numeric code proving email ownership for
// password recovery. Several requests may be outstanding for one email;
// each stays valid until it expires or a successful reset deletes the
// whole set. The code itself is the lookup key together with the email,
// so no "used" flag exists.
type ResetRequest struct {
	Email   Email
	Code    string
	Expires time.Time
}
