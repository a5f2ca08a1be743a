package models_test

import (
	"github.com/lcc-aid/fsystem-backend/internal/models"
	"github.com/shopspring/decimal"
)

func (suite *TestSuiteStandard) TestDonorNameUnique() {
	suite.createTestDonor(models.Donor{Name: "Welthungerhilfe", ShortCode: "WHH"})

	err := models.DB.Create(&models.Donor{Name: "Welthungerhilfe"}).Error
	suite.Assert().ErrorIs(err, models.ErrDonorNameNotUnique)
}

func (suite *TestSuiteStandard) TestStateNameUnique() {
	suite.createTestState(models.State{Name: "Khartoum", ShortCode: "KH"})

	err := models.DB.Create(&models.State{Name: "Khartoum"}).Error
	suite.Assert().ErrorIs(err, models.ErrStateNameNotUnique)
}

func (suite *TestSuiteStandard) TestGrantCallImmutableWithAllocations() {
	h := suite.createTestHierarchy("Khartoum", "KH", "DKH", decimal.NewFromInt(10000))

	err := models.DB.Model(&h.GrantCall).Update("total_amount", decimal.NewFromInt(1)).Error
	suite.Assert().ErrorIs(err, models.ErrGrantCallImmutable)

	// The status can still change.
	err = models.DB.Model(&h.GrantCall).Update("status", models.GrantCallClosed).Error
	suite.Assert().NoError(err)
}

func (suite *TestSuiteStandard) TestGrantCallEditableWithoutAllocations() {
	donor := suite.createTestDonor(models.Donor{Name: "Donor", ShortCode: "D"})
	grantCall := suite.createTestGrantCall(models.GrantCall{
		Name:        "Fresh Call",
		DonorID:     donor.ID,
		TotalAmount: decimal.NewFromInt(1000),
	})

	err := models.DB.Model(&grantCall).Update("total_amount", decimal.NewFromInt(2000)).Error
	suite.Assert().NoError(err)
}

func (suite *TestSuiteStandard) TestResourceNotFound() {
	var donor models.Donor
	err := models.DB.First(&donor, "id = ?", "00000000-0000-0000-0000-000000000000").Error
	suite.Assert().ErrorIs(err, models.ErrResourceNotFound)
}
