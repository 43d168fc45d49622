package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"seed"},
		{"backup"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestValidateBackupFlags(t *testing.T) {
	t.Cleanup(func() { backupFlags.companyID, backupFlags.all = "", false })

	backupFlags.companyID, backupFlags.all = "", false
	assert.Error(t, validateBackupFlags(backupCmd, nil))

	backupFlags.companyID = "c-1"
	assert.NoError(t, validateBackupFlags(backupCmd, nil))

	backupFlags.companyID, backupFlags.all = "", true
	assert.NoError(t, validateBackupFlags(backupCmd, nil))
}

func TestSeedRequestTrimsFlags(t *testing.T) {
	t.Cleanup(func() { seedFlags = seedOptions{} })

	seedFlags.companyName = "  Taller Central "
	seedFlags.companyTaxID = "900123456-7"
	seedFlags.adminName = "Administrador"
	seedFlags.adminEmail = " admin@taller.co"
	seedFlags.adminPassword = " con espacios "

	req := seedRequest()
	assert.Equal(t, "Taller Central", req.CompanyName)
	assert.Equal(t, "admin@taller.co", req.AdminEmail)
	assert.Equal(t, " con espacios ", req.AdminPassword, "la contraseña no se recorta")
}
