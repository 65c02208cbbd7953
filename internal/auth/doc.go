// Package auth implements the account and authentication core of the
// mood tracker: password hashing and strength policy, signed access and
// email-verification tokens, and the registration, login, and
// verification flows.
//
// # Domain Types
//
// Account is the stored identity record. It is created unverified by
// RegistrationService and becomes verified exactly once through
// VerificationService. Direct struct initialization bypasses validation;
// use NewAccount.
//
// # Services
//
// Service types coordinate domain operations:
//   - RegistrationService - validate, hash, insert, email a verification link
//   - AuthService - credential check and access-token issuance
//   - VerificationService - consume verification tokens, flip the flag
//
// All services take their storage handles and tokens as explicit
// arguments; there is no ambient global state.
package auth
