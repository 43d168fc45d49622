package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/taller-api/pkg/jwt"
)

const secret = "test-secret"

func TestGenerateAndParse(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, "u1", "c1", "tecnico", "taller-test", 10)
	require.NoError(t, err)

	userID, companyID, role, err := pkgjwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "c1", companyID)
	assert.Equal(t, "tecnico", role)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", "u1", "c1", "admin", "taller-test", 10)
	assert.Error(t, err)
}

func TestReset_FlujoCompleto(t *testing.T) {
	key := secret + "$2a$10$hashactual"
	tok, err := pkgjwt.GenerateReset(key, "u1", "taller-test", 30)
	require.NoError(t, err)

	sub, err := pkgjwt.ResetSubject(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", sub)

	userID, err := pkgjwt.ParseReset(key, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestReset_InvalidoTrasCambioDePassword(t *testing.T) {
	tok, err := pkgjwt.GenerateReset(secret+"hash-viejo", "u1", "taller-test", 30)
	require.NoError(t, err)

	_, err = pkgjwt.ParseReset(secret+"hash-nuevo", tok)
	assert.Error(t, err)
}

func TestReset_NoSirveComoTokenDeAcceso(t *testing.T) {
	tok, err := pkgjwt.GenerateReset(secret, "u1", "taller-test", 30)
	require.NoError(t, err)

	_, _, _, err = pkgjwt.Parse(secret, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrWrongPurpose)
}

func TestAcceso_NoSirveComoReset(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, "u1", "c1", "admin", "taller-test", 10)
	require.NoError(t, err)

	_, err = pkgjwt.ResetSubject(tok)
	assert.ErrorIs(t, err, pkgjwt.ErrWrongPurpose)
	_, err = pkgjwt.ParseReset(secret, tok)
	assert.ErrorIs(t, err, pkgjwt.ErrWrongPurpose)
}
