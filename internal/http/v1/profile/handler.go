// Package profile exposes the profile service over HTTP.
package profile

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/danielgtaylor/huma/v2"

	applog "github.com/janisto/ols-profile-service/internal/platform/logging"
	"github.com/janisto/ols-profile-service/internal/platform/pagination"
	"github.com/janisto/ols-profile-service/internal/platform/respond"
	"github.com/janisto/ols-profile-service/internal/platform/timeutil"
	profilesvc "github.com/janisto/ols-profile-service/internal/service/profile"
)

var now = time.Now

// Register registers profile endpoints. prefix is the API mount path used in
// Location and Link headers; security is attached to every operation.
func Register(api huma.API, svc profilesvc.Service, prefix string, security []map[string][]string) {
	base := prefix + "/profiles"

	huma.Register(api, huma.Operation{
		OperationID: "list-profiles",
		Method:      http.MethodGet,
		Path:        "/profiles",
		Summary:     "List profiles",
		Description: "Returns a page of profiles. Follow the Link header for the next and previous pages.",
		Tags:        []string{"Profiles"},
		Security:    security,
	}, func(ctx context.Context, input *ProfileListInput) (*ProfileListOutput, error) {
		page := input.Params.Normalized()
		profiles, err := svc.List(ctx, page.Offset, page.Limit)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		body := make([]Profile, 0, len(profiles))
		for i := range profiles {
			body = append(body, toHTTPProfile(&profiles[i]))
		}
		return &ProfileListOutput{
			Link: pagination.BuildLinkHeader(base, url.Values{}, page, len(profiles)),
			Body: body,
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/profiles/{uuid}",
		Summary:     "Get a profile",
		Description: "Retrieves a profile. Cached reads carry an ETag; sending it back in If-None-Match yields 304 while the entry is fresh.",
		Tags:        []string{"Profiles"},
		Security:    security,
		Responses: map[string]*huma.Response{
			"304": {Description: "Not Modified"},
		},
	}, func(ctx context.Context, input *ProfileGetInput) (*ProfileGetOutput, error) {
		res, err := svc.Get(ctx, input.UUID, input.IfNoneMatch)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}

		out := &ProfileGetOutput{Status: http.StatusOK}
		if res.Cache != profilesvc.CacheNone || res.NotModified {
			out.ETag = profilesvc.ETag(input.UUID)
			out.Cache = res.Cache.String()
			if res.TTL > 0 {
				out.CacheControl = fmt.Sprintf("max-age=%d", int(res.TTL.Seconds()))
				out.Expires = now().Add(res.TTL).UTC().Format(http.TimeFormat)
			}
		}
		if res.NotModified {
			out.Status = http.StatusNotModified
			out.Cache = ""
			out.Expires = ""
			return out, nil
		}
		p := toHTTPProfile(res.Profile)
		out.Body = &p
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-profile",
		Method:        http.MethodPost,
		Path:          "/profiles",
		Summary:       "Create a profile",
		Description:   "Creates a profile. The email must not belong to another profile.",
		Tags:          []string{"Profiles"},
		DefaultStatus: http.StatusCreated,
		Security:      security,
	}, func(ctx context.Context, input *ProfileCreateInput) (*ProfileCreateOutput, error) {
		created, err := svc.Create(ctx, profilesvc.CreateParams{
			Email:     input.Body.Email,
			Firstname: input.Body.Firstname,
			Lastname:  input.Body.Lastname,
			Birthdate: input.Body.Birthdate,
			Gender:    input.Body.Gender,
			Addresses: toServiceAddresses(input.Body.Addresses),
			Image:     toServiceImage(input.Body.Image),
		})
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &ProfileCreateOutput{
			Location: base + "/" + created.UUID,
			Body:     toHTTPProfile(created),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPut,
		Path:        "/profiles/{uuid}",
		Summary:     "Update a profile",
		Description: "Updates the provided fields. The cached copy, if any, is discarded.",
		Tags:        []string{"Profiles"},
		Security:    security,
	}, func(ctx context.Context, input *ProfileUpdateInput) (*ProfileUpdateOutput, error) {
		params := profilesvc.UpdateParams{
			Email:     input.Body.Email,
			Firstname: input.Body.Firstname,
			Lastname:  input.Body.Lastname,
			Birthdate: input.Body.Birthdate,
			Gender:    input.Body.Gender,
			Image:     toServiceImage(input.Body.Image),
		}
		if input.Body.Addresses != nil {
			addresses := toServiceAddresses(*input.Body.Addresses)
			params.Addresses = &addresses
		}
		if params.IsEmpty() {
			return nil, huma.Error422UnprocessableEntity("at least one field must be provided")
		}

		updated, err := svc.Update(ctx, input.UUID, params)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &ProfileUpdateOutput{Body: toHTTPProfile(updated)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-profile",
		Method:        http.MethodDelete,
		Path:          "/profiles/{uuid}",
		Summary:       "Delete a profile",
		Description:   "Permanently deletes a profile and its cached copy.",
		Tags:          []string{"Profiles"},
		DefaultStatus: http.StatusNoContent,
		Security:      security,
	}, func(ctx context.Context, input *ProfileDeleteInput) (*struct{}, error) {
		if err := svc.Delete(ctx, input.UUID); err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return nil, nil
	})
}

func mapServiceError(ctx context.Context, err error) error {
	var be *profilesvc.BackendError
	switch {
	case errors.Is(err, profilesvc.ErrNotFound):
		return huma.Error404NotFound("profile not found")
	case errors.Is(err, profilesvc.ErrConflict):
		return huma.Error409Conflict("profile email already exists")
	case errors.Is(err, profilesvc.ErrInvalidInput):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.As(err, &be):
		applog.LogError(ctx, "backend failure", err)
		return &respond.BackendProblem{Msg: be.Msg, Reason: be.Reason}
	default:
		applog.LogError(ctx, "unexpected service error", err)
		return &respond.BackendProblem{Msg: "internal error"}
	}
}

func toHTTPProfile(p *profilesvc.Profile) Profile {
	out := Profile{
		UUID:      p.UUID,
		Email:     p.Email,
		Firstname: p.Firstname,
		Lastname:  p.Lastname,
		Birthdate: p.Birthdate,
		Gender:    p.Gender,
		Addresses: make([]Address, 0, len(p.Addresses)),
		CreatedAt: timeutil.NewTime(p.CreatedAt),
		UpdatedAt: timeutil.NewTime(p.UpdatedAt),
	}
	for _, a := range p.Addresses {
		out.Addresses = append(out.Addresses, Address(a))
	}
	if p.Image != nil {
		out.Image = &Image{Name: p.Image.Name, URL: p.Image.URL}
	}
	return out
}

func toServiceAddresses(in []Address) []profilesvc.Address {
	if in == nil {
		return nil
	}
	out := make([]profilesvc.Address, 0, len(in))
	for _, a := range in {
		out = append(out, profilesvc.Address(a))
	}
	return out
}

func toServiceImage(in *Image) *profilesvc.Image {
	if in == nil {
		return nil
	}
	return &profilesvc.Image{Name: in.Name, URL: in.URL}
}
