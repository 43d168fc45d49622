package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PurposeReset marca los tokens de recuperación de contraseña.
const PurposeReset = "password_reset"

// ErrWrongPurpose se devuelve cuando un token válido se usa para algo distinto a lo emitido.
var ErrWrongPurpose = errors.New("jwt: propósito del token no coincide")

// Claims incluye los claims estándar JWT más los campos propios de la aplicación.
// Role viaja en el token para que RequireRole decida sin consultar la DB.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"` // "admin" | "tecnico" | "vendedor"
	Purpose   string `json:"purpose,omitempty"`
}

// Generate genera un token de acceso firmado que incluye userID, companyID y role.
func Generate(secret, userID, companyID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:    userID,
		CompanyID: companyID,
		Role:      role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse valida el token de acceso y devuelve userID, companyID y role.
// Retorna error si el token es inválido, expirado, tiene firma incorrecta o es de recuperación.
func Parse(secret, tokenString string) (userID, companyID, role string, err error) {
	claims, err := parseClaims(secret, tokenString)
	if err != nil {
		return "", "", "", err
	}
	if claims.Purpose != "" {
		return "", "", "", ErrWrongPurpose
	}
	return claims.UserID, claims.CompanyID, claims.Role, nil
}

// GenerateReset emite un token de recuperación de contraseña.
// La clave de firma debe incluir el hash de contraseña actual del usuario: así el token
// deja de ser válido en cuanto la contraseña cambia.
func GenerateReset(signingKey, userID, issuer string, expMinutes int) (string, error) {
	if signingKey == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:  userID,
		Purpose: PurposeReset,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
}

// ResetSubject lee el usuario de un token de recuperación SIN verificar la firma.
// Sirve para cargar el usuario y reconstruir la clave con la que se verifica después.
func ResetSubject(tokenString string) (string, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", err
	}
	if claims.Purpose != PurposeReset || claims.UserID == "" {
		return "", ErrWrongPurpose
	}
	return claims.UserID, nil
}

// ParseReset verifica un token de recuperación y devuelve el userID.
func ParseReset(signingKey, tokenString string) (string, error) {
	claims, err := parseClaims(signingKey, tokenString)
	if err != nil {
		return "", err
	}
	if claims.Purpose != PurposeReset {
		return "", ErrWrongPurpose
	}
	return claims.UserID, nil
}

func parseClaims(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	return claims, nil
}
