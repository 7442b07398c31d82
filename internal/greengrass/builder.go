// Package greengrass prepares a Greengrass v2 deployment of the packaged SFC
// configuration: a component recipe and a deployment document derived from
// the latest deployment of the target thing. Nothing is deployed; the
// operator runs the printed AWS CLI commands.
package greengrass

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/greengrassv2"
	ggtypes "github.com/aws/aws-sdk-go-v2/service/greengrassv2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/HerbHall/plcbridge/internal/jsondoc"
	"github.com/HerbHall/plcbridge/internal/templates"
)

// RecipeTemplate is the component recipe template file.
const RecipeTemplate = "gg_comp.json.template"

// ComponentName is used when the recipe template does not name the component.
const ComponentName = "custom.aws.sfc.runtime.with.config"

// Defaults for the deployment options.
const (
	DefaultComponentVersion = "1.0.1"
	DefaultThingArn         = "arn:aws:iot:us-east-1:123456789012:thing/MyThing"
)

// Sentinel errors. The CLI exits with status 1 on each of them.
var (
	ErrNoCredentials = errors.New("greengrass: no usable AWS credentials")
	ErrAccessDenied  = errors.New("greengrass: access denied listing deployments")
	ErrNoDeployments = errors.New("greengrass: target has no deployments")
)

// DeploymentAPI is the subset of the Greengrass v2 client used here.
type DeploymentAPI interface {
	greengrassv2.ListDeploymentsAPIClient
	GetDeployment(ctx context.Context, params *greengrassv2.GetDeploymentInput, optFns ...func(*greengrassv2.Options)) (*greengrassv2.GetDeploymentOutput, error)
}

// IdentityAPI is the subset of the STS client used to check credentials.
type IdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// NewClients loads the default AWS configuration for region and returns the
// clients a Builder needs.
func NewClients(ctx context.Context, region string) (*greengrassv2.Client, *sts.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNoCredentials, err)
	}
	return greengrassv2.NewFromConfig(cfg), sts.NewFromConfig(cfg), nil
}

// Options configure a Builder.
type Options struct {
	Region           string
	ThingArn         string
	ComponentVersion string
	OutputDir        string
	Templates        fs.FS // nil selects the compiled-in templates
}

// Manifest describes the written documents.
type Manifest struct {
	RecipePath     string
	DeploymentPath string
	Deployment     *Deployment
	Commands       []string // AWS CLI invocations that register and deploy the component
}

// Builder writes Greengrass recipe and deployment documents.
type Builder struct {
	deployments DeploymentAPI
	identity    IdentityAPI
	opts        Options
	logger      *zap.Logger
}

// NewBuilder returns a Builder, filling unset options with defaults.
func NewBuilder(deployments DeploymentAPI, identity IdentityAPI, opts Options, logger *zap.Logger) *Builder {
	if opts.Templates == nil {
		opts.Templates = templates.Default()
	}
	if opts.ComponentVersion == "" {
		opts.ComponentVersion = DefaultComponentVersion
	}
	if opts.ThingArn == "" {
		opts.ThingArn = DefaultThingArn
	}
	return &Builder{deployments: deployments, identity: identity, opts: opts, logger: logger.Named("greengrass")}
}

// Build embeds installer and the zip archive at zipPath into a recipe and a
// deployment document in the output directory.
func (b *Builder) Build(ctx context.Context, installer, zipPath string) (*Manifest, error) {
	if !semver.IsValid("v" + b.opts.ComponentVersion) {
		return nil, fmt.Errorf("component version %q is not a semantic version", b.opts.ComponentVersion)
	}
	if err := b.checkCredentials(ctx); err != nil {
		return nil, err
	}

	zipData, err := os.ReadFile(zipPath)
	if err != nil {
		return nil, fmt.Errorf("reading config archive: %w", err)
	}
	merge, err := jsondoc.MarshalCompact(map[string]string{
		"sfcInstallerBase64Encoded": base64.StdEncoding.EncodeToString([]byte(installer)),
		"sfcConfigZipBase64Encoded": base64.StdEncoding.EncodeToString(zipData),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding configuration merge: %w", err)
	}

	recipe, component, err := b.recipe()
	if err != nil {
		return nil, err
	}
	m := &Manifest{
		RecipePath:     filepath.Join(b.opts.OutputDir, fmt.Sprintf("sfc-greengrass-component-recipe-%s.json", b.opts.ComponentVersion)),
		DeploymentPath: filepath.Join(b.opts.OutputDir, fmt.Sprintf("sfc-greengrass-component-deployment-%s.json", b.opts.ComponentVersion)),
	}
	latest, err := b.latestDeployment(ctx)
	if err != nil {
		return nil, err
	}
	if err := jsondoc.WriteFile(m.RecipePath, recipe, jsondoc.IndentSFC); err != nil {
		return nil, err
	}
	if latest.Components == nil {
		latest.Components = make(map[string]ComponentSpec)
	}
	latest.Components[component] = ComponentSpec{
		ComponentVersion: b.opts.ComponentVersion,
		ConfigurationUpdate: &ConfigurationUpdate{
			Reset: []string{""},
			Merge: string(merge),
		},
	}
	if err := jsondoc.WriteFile(m.DeploymentPath, latest, jsondoc.IndentSFC); err != nil {
		return nil, err
	}
	m.Deployment = latest

	m.Commands = []string{
		fmt.Sprintf("aws greengrassv2 create-component-version --inline-recipe fileb://%s --region %s", m.RecipePath, b.opts.Region),
		fmt.Sprintf("aws greengrassv2 create-deployment --cli-input-json file://%s --region %s", m.DeploymentPath, b.opts.Region),
	}
	b.logger.Info("greengrass documents written",
		zap.String("recipe", m.RecipePath),
		zap.String("deployment", m.DeploymentPath),
		zap.String("component", component),
		zap.String("component_version", b.opts.ComponentVersion),
	)
	return m, nil
}

func (b *Builder) checkCredentials(ctx context.Context) error {
	out, err := b.identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoCredentials, err)
	}
	b.logger.Debug("aws credentials ok", zap.String("arn", aws.ToString(out.Arn)))
	return nil
}

// recipe loads the recipe template with the component version set and
// returns it with the component name.
func (b *Builder) recipe() (map[string]any, string, error) {
	data, err := fs.ReadFile(b.opts.Templates, RecipeTemplate)
	if err != nil {
		return nil, "", fmt.Errorf("read recipe template: %w", err)
	}
	var recipe map[string]any
	if err := jsondoc.Unmarshal(data, &recipe); err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", RecipeTemplate, err)
	}
	recipe["ComponentVersion"] = b.opts.ComponentVersion

	name, _ := recipe["ComponentName"].(string)
	if name == "" {
		name = ComponentName
	}
	return recipe, name, nil
}

// latestDeployment fetches the newest deployment of the target thing as a
// replayable document.
func (b *Builder) latestDeployment(ctx context.Context) (*Deployment, error) {
	pages := greengrassv2.NewListDeploymentsPaginator(b.deployments, &greengrassv2.ListDeploymentsInput{
		TargetArn:     aws.String(b.opts.ThingArn),
		HistoryFilter: ggtypes.DeploymentHistoryFilterLatestOnly,
	})

	var newest *ggtypes.Deployment
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			if isAccessDenied(err) {
				return nil, fmt.Errorf("%w for %s (does the thing exist, and may these credentials read it?): %w",
					ErrAccessDenied, b.opts.ThingArn, err)
			}
			return nil, fmt.Errorf("listing deployments: %w", err)
		}
		for i := range page.Deployments {
			d := &page.Deployments[i]
			if newest == nil || newer(d, newest) {
				newest = d
			}
		}
	}
	if newest == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDeployments, b.opts.ThingArn)
	}

	out, err := b.deployments.GetDeployment(ctx, &greengrassv2.GetDeploymentInput{DeploymentId: newest.DeploymentId})
	if err != nil {
		return nil, fmt.Errorf("getting deployment %s: %w", aws.ToString(newest.DeploymentId), err)
	}
	b.logger.Debug("basing deployment on latest",
		zap.String("deployment_id", aws.ToString(newest.DeploymentId)),
		zap.String("status", string(out.DeploymentStatus)),
	)
	return replayable(out)
}

func newer(a, b *ggtypes.Deployment) bool {
	if a.CreationTimestamp == nil || b.CreationTimestamp == nil {
		return false
	}
	return a.CreationTimestamp.After(*b.CreationTimestamp)
}

// replayable converts the service response into a create-deployment request.
// The conversion goes through JSON: field names match case-insensitively and
// fields without a counterpart in Deployment are dropped.
func replayable(out *greengrassv2.GetDeploymentOutput) (*Deployment, error) {
	data, err := jsondoc.MarshalCompact(out)
	if err != nil {
		return nil, fmt.Errorf("encoding deployment: %w", err)
	}
	var d Deployment
	if err := jsondoc.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding deployment: %w", err)
	}
	return &d, nil
}

func isAccessDenied(err error) bool {
	var denied *ggtypes.AccessDeniedException
	if errors.As(err, &denied) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDeniedException"
}
