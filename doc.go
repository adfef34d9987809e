// Package auth implements the DevShare account backend: credential signup
// and login, JWT issuance, password reset and email verification tickets,
// plus the repository layer they persist through.
//
// Credential flow:
//   - RegisterUserHandler creates a student account, hashes the password with
//     bcrypt, and stores a hashed verification ticket. The raw ticket only
//     ever leaves the process through a Notifier.
//   - Auther verifies credentials through an IdentityProvider and signs a
//     token via TokenService. Failed lookups and bad passwords collapse into
//     the same ErrInvalidCredentials so callers cannot probe for accounts.
//
// Tickets:
//   - Password reset and email verification share the Ticket primitive: a
//     random token whose sha256 hash is stored on the user row together with
//     an expiry. Consuming a ticket is a single conditional UPDATE, so each
//     token works at most once.
//
// The HTTP edge lives in AuthController (fiber), route protection in
// middleware/guard, and the Google OAuth flow in the social subpackage.
package auth
