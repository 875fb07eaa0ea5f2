package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"feature-dashboard/src/models"
)

// Clients returns the raw client directory
func (c *Client) Clients(ctx context.Context) ([]models.Client, error) {
	var out []models.Client
	if err := c.getJSON(ctx, UpstreamCMS, c.endpoints.CMSClients, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Categories returns the category tree of a client
func (c *Client) Categories(ctx context.Context, clientID int) (models.CmsCategories, error) {
	var out models.CmsCategories
	err := c.getJSON(ctx, UpstreamCMS, fmt.Sprintf("%s/%d/categories", c.endpoints.CMSClients, clientID), &out)
	return out, err
}

// Tags returns the CMS tags of a client
func (c *Client) Tags(ctx context.Context, clientID int) ([]models.CmsTag, error) {
	var out []models.CmsTag
	if err := c.getJSON(ctx, UpstreamCMS, fmt.Sprintf("%s/%d/tags", c.endpoints.CMSClients, clientID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Features returns the feature catalog
func (c *Client) Features(ctx context.Context) ([]models.CatalogFeature, error) {
	var out []models.CatalogFeature
	if err := c.getJSON(ctx, UpstreamSettings, c.endpoints.Features, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Overview returns the feature statuses of a client
func (c *Client) Overview(ctx context.Context, clientID int) ([]models.Feature, error) {
	var out []models.Feature
	if err := c.getJSON(ctx, UpstreamSettings, fmt.Sprintf("%s/%d", c.endpoints.OverviewBase, clientID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Feature returns the catalog entry with its JSON schema
func (c *Client) Feature(ctx context.Context, featureID int) (models.CatalogFeature, error) {
	var out models.CatalogFeature
	err := c.getJSON(ctx, UpstreamSettings, fmt.Sprintf("%s/%d", c.endpoints.Features, featureID), &out)
	return out, err
}

// Configurations lists the configurations of a client feature
func (c *Client) Configurations(ctx context.Context, clientID, featureID int) ([]models.Configuration, error) {
	var out []models.Configuration
	u := fmt.Sprintf("%s/client/%d/feature/%d", c.endpoints.Configurations, clientID, featureID)
	if err := c.getJSON(ctx, UpstreamSettings, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Usages lists the usages of a client feature
func (c *Client) Usages(ctx context.Context, clientID, featureID int) ([]models.Usage, error) {
	var out []models.Usage
	u := fmt.Sprintf("%s/client/%d/feature/%d", c.endpoints.Usages, clientID, featureID)
	if err := c.getJSON(ctx, UpstreamSettings, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConfiguration posts a new configuration and returns it as stored
func (c *Client) CreateConfiguration(ctx context.Context, req models.CreateConfigurationRequest) (models.Configuration, error) {
	var out models.Configuration
	err := c.sendJSON(ctx, UpstreamSettings, http.MethodPost, c.endpoints.Configurations+"/", req, &out)
	return out, err
}

// UpdateConfiguration replaces a configuration
func (c *Client) UpdateConfiguration(ctx context.Context, cfg models.Configuration) (models.Configuration, error) {
	out := cfg
	u := fmt.Sprintf("%s/%d", c.endpoints.Configurations, cfg.ID)
	err := c.sendJSON(ctx, UpstreamSettings, http.MethodPut, u, cfg, &out)
	return out, err
}

// CreateUsage posts a new usage
func (c *Client) CreateUsage(ctx context.Context, usage models.Usage) (models.Usage, error) {
	out := usage
	err := c.sendJSON(ctx, UpstreamSettings, http.MethodPost, c.endpoints.Usages+"/", usage, &out)
	return out, err
}

// UpdateUsage replaces the usage addressed by target. The usage's level field is set to the target id.
func (c *Client) UpdateUsage(ctx context.Context, target models.UsageTarget, usage models.Usage) error {
	usage.ID = usage.ID.WithTarget(target.Level, target.ID)
	usage.ID.ConfigurationID = target.ConfigurationID
	return c.sendJSON(ctx, UpstreamSettings, http.MethodPut, c.usageURL(target), usage, nil)
}

// DeleteUsage removes the usage addressed by target
func (c *Client) DeleteUsage(ctx context.Context, target models.UsageTarget) error {
	return c.sendJSON(ctx, UpstreamSettings, http.MethodDelete, c.usageURL(target), nil, nil)
}

func (c *Client) usageURL(target models.UsageTarget) string {
	q := url.Values{}
	q.Set(target.Level.TargetParam(), strconv.Itoa(target.ID))
	q.Set("configuration-id", strconv.Itoa(target.ConfigurationID))
	return c.endpoints.Usages + "?" + q.Encode()
}
