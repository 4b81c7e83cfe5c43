package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleApplication(id uint, email string) model.StoreApplication {
	return model.StoreApplication{
		ID:                         id,
		OwnerName:                  "Owner " + email,
		Email:                      email,
		Phone:                      "0700",
		StoreName:                  "Store " + email,
		StoreType:                  model.StoreTypeSpices,
		Location:                   "Kampala",
		BusinessRegistrationNumber: "BRN",
		TaxID:                      "TIN",
		IDType:                     model.IDTypeNationalID,
		IDNumber:                   "CM1",
		IDFrontURL:                 "f",
		IDBackURL:                  "b",
		SelfieWithIDURL:            "s",
		BusinessCertificateURL:     "c",
		UtilityBillURL:             "u",
		VerificationStatus:         model.VerificationStatusRejected,
		RejectionReason:            "Incomplete documents",
		SubmittedAt:                time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestWriteThenReadApplications(t *testing.T) {
	var buf bytes.Buffer
	apps := []model.StoreApplication{sampleApplication(1, "a@example.com"), sampleApplication(2, "b@example.com")}
	require.NoError(t, WriteApplications(&buf, apps))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	reason, err := f.GetCellValue(sheetName, "S2")
	require.NoError(t, err)
	assert.Equal(t, "Incomplete documents", reason)
	require.NoError(t, f.Close())

	result, err := ReadApplications(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, result.Applications, 2)
	assert.Zero(t, result.Skipped)

	imported := result.Applications[0]
	assert.Equal(t, "a@example.com", imported.Email)
	assert.Equal(t, model.VerificationStatusPending, imported.VerificationStatus)
	assert.Empty(t, imported.RejectionReason)
	assert.Equal(t, apps[0].SubmittedAt, imported.SubmittedAt)
}

func TestReadApplications_SkipsBadRows(t *testing.T) {
	missing := sampleApplication(2, "b@example.com")
	missing.Phone = ""
	badType := sampleApplication(4, "d@example.com")
	badType.StoreType = "bakery"

	var buf bytes.Buffer
	require.NoError(t, WriteApplications(&buf, []model.StoreApplication{
		sampleApplication(1, "a@example.com"),
		missing,
		sampleApplication(3, "A@example.com"),
		badType,
	}))

	result, err := ReadApplications(&buf)
	require.NoError(t, err)
	assert.Len(t, result.Applications, 1)
	assert.Equal(t, 3, result.Skipped)
	assert.Len(t, result.Problems, 3)
}

func TestReadApplications_MissingColumn(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Owner Name", "Email"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, err := ReadApplications(&buf)
	assert.ErrorContains(t, err, "missing column")
}

func TestFilename(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, "store-applications-all-1700000000.xlsx", Filename("", at))
	assert.Equal(t, "store-applications-pending-1700000000.xlsx", Filename(model.VerificationStatusPending, at))
}
