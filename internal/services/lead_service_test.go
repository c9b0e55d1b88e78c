package services

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/campaign-manager/backend/internal/events"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadCreateLinksCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	c := f.campaign(t, owner, "Spring")

	l := f.lead(t, owner, c.ID, 1)
	assert.Equal(t, owner.ID, l.Owner)
	assert.Equal(t, models.LeadStatusNew, l.Status)

	got, err := f.campaigns.Get(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{l.ID}, got.Leads)
	assert.Contains(t, f.events.Types(), events.EventLeadCreated)
}

func TestLeadCreateChecksCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	stranger := f.user(t, models.RoleUser)
	c := f.campaign(t, owner, "Spring")

	in := LeadInput{
		FirstName: "Eve",
		Email:     "eve@example.com",
		Source:    models.LeadSource{Platform: models.PlatformGoogle, Campaign: c.ID},
	}
	_, err := f.leads.Create(ctx, stranger, in)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "Not authorized to add leads to this campaign", err.Error())

	in.Source.Campaign = uuid.New()
	_, err = f.leads.Create(ctx, owner, in)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Campaign not found", err.Error())

	got, err := f.campaigns.Get(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Leads)
}

func TestLeadValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, models.RoleUser)
	c := f.campaign(t, owner, "Spring")

	tests := []struct {
		name    string
		mutate  func(*LeadInput)
		message string
	}{
		{"missing first name", func(in *LeadInput) { in.FirstName = "" }, "Please add a first name"},
		{"missing email", func(in *LeadInput) { in.Email = "" }, "Please add an email"},
		{"bad email", func(in *LeadInput) { in.Email = "not-an-email" }, "Please add a valid email"},
		{"bad status", func(in *LeadInput) { in.Status = "hot" }, ""},
		{"bad platform", func(in *LeadInput) { in.Source.Platform = "fax" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := LeadInput{
				FirstName: "Al",
				Email:     "al@example.com",
				Source:    models.LeadSource{Platform: models.PlatformOther, Campaign: c.ID},
			}
			tt.mutate(&in)
			_, err := f.leads.Create(context.Background(), owner, in)
			require.ErrorIs(t, err, ErrInvalid)
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
		})
	}
}

func TestLeadOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	stranger := f.user(t, models.RoleUser)
	admin := f.user(t, models.RoleAdmin)
	c := f.campaign(t, owner, "Spring")
	l := f.lead(t, owner, c.ID, 1)

	_, err := f.leads.Get(ctx, stranger, l.ID)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "Not authorized to access this lead", err.Error())

	status := models.LeadStatusContacted
	_, err = f.leads.Update(ctx, stranger, l.ID, LeadPatch{Status: &status})
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "Not authorized to update this lead", err.Error())

	err = f.leads.Delete(ctx, stranger, l.ID)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "Not authorized to delete this lead", err.Error())

	_, err = f.leads.ListByCampaign(ctx, stranger, c.ID)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "Not authorized to access leads for this campaign", err.Error())

	got, err := f.leads.Get(ctx, admin, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spring", got.Source.CampaignName)

	_, err = f.leads.Get(ctx, owner, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Lead not found", err.Error())
}

func TestLeadUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	admin := f.user(t, models.RoleAdmin)
	c := f.campaign(t, owner, "Spring")
	l := f.lead(t, owner, c.ID, 1)

	status := models.LeadStatusQualified
	platform := models.PlatformLinkedIn
	updated, err := f.leads.Update(ctx, admin, l.ID, LeadPatch{Status: &status, SourcePlatform: &platform})
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusQualified, updated.Status)
	assert.Equal(t, models.PlatformLinkedIn, updated.Source.Platform)
	assert.Equal(t, owner.ID, updated.Owner)
	assert.Equal(t, c.ID, updated.Source.Campaign)

	bad := "lost"
	_, err = f.leads.Update(ctx, owner, l.ID, LeadPatch{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLeadAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	rep := f.user(t, models.RoleUser)
	c := f.campaign(t, owner, "Spring")

	stranger := uuid.New()
	_, err := f.leads.Create(ctx, owner, LeadInput{
		FirstName:  "Ann",
		Email:      "ann@example.com",
		Source:     models.LeadSource{Platform: models.PlatformFacebook, Campaign: c.ID},
		AssignedTo: &stranger,
	})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "assignedTo: unknown user", err.Error())

	l := f.lead(t, owner, c.ID, 1)
	_, err = f.leads.Update(ctx, owner, l.ID, LeadPatch{AssignedTo: &stranger})
	require.ErrorIs(t, err, ErrInvalid)

	updated, err := f.leads.Update(ctx, owner, l.ID, LeadPatch{AssignedTo: &rep.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, rep.ID, *updated.AssignedTo)

	updated, err = f.leads.Update(ctx, owner, l.ID, LeadPatch{Unassign: true})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedTo)

	stored, err := f.leads.Get(ctx, owner, l.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedTo)
}

func TestLeadDeleteUnlinksCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	c := f.campaign(t, owner, "Spring")
	keep := f.lead(t, owner, c.ID, 1)
	gone := f.lead(t, owner, c.ID, 2)

	require.NoError(t, f.leads.Delete(ctx, owner, gone.ID))

	got, err := f.campaigns.Get(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{keep.ID}, got.Leads)

	_, err = f.leads.Get(ctx, owner, gone.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.leads.Delete(ctx, owner, gone.ID), ErrNotFound)

	leads, err := f.leads.ListByCampaign(ctx, owner, c.ID)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, keep.ID, leads[0].ID)
}

func TestLeadListPopulatesCampaign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, models.RoleUser)
	other := f.user(t, models.RoleUser)
	c := f.campaign(t, owner, "Spring")
	f.lead(t, owner, c.ID, 1)
	f.lead(t, owner, c.ID, 2)
	f.lead(t, other, f.campaign(t, other, "Theirs").ID, 3)

	res, err := f.leads.List(ctx, owner, url.Values{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)
	require.Len(t, res.Items, 2)

	raw, err := json.Marshal(res.Items[0])
	require.NoError(t, err)
	var doc struct {
		Source struct {
			Campaign models.CampaignRef `json:"campaign"`
		} `json:"source"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, c.ID, doc.Source.Campaign.ID)
	assert.Equal(t, "Spring", doc.Source.Campaign.Name)

	res, err = f.leads.List(ctx, owner, url.Values{"firstName": {"Lead2"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
}
