package drift

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/gitfleet/internal/shared"
	"github.com/temirov/gitfleet/internal/submodules"
)

const (
	defaultRootPathConstant             = "."
	rootLogFieldConstant                = "root"
	repositoryLogFieldConstant          = "repository"
	repositoryCountLogFieldConstant     = "repositories"
	reportStartedMessageConstant        = "Collecting nested repository drift"
	rootUnavailableMessageConstant      = "Root reported as indeterminate"
	initializationFailedMessageConstant = "Continuing without nested repository initialization"
	fetchDiscoveryFailedMessageConstant = "Unable to list nested repositories"
	repositoryClassifiedMessageConstant = "Nested repository classified"
	reportCompletedMessageConstant      = "Nested repository drift collected"
	statusLogFieldConstant              = "status"
)

// Walker initializes and fetches the nested repositories of a repository tree.
type Walker interface {
	InitializeAndUpdate(executionContext context.Context, repositoryRoot string) error
	FetchAll(executionContext context.Context, repositoryRoot string) (submodules.FetchSummary, error)
}

// RepositoryClassifier classifies a single repository.
type RepositoryClassifier interface {
	Classify(executionContext context.Context, repositoryPath string) NestedRepository
}

// Dependencies enumerates external collaborators required to build a drift report.
type Dependencies struct {
	Walker               Walker
	Classifier           RepositoryClassifier
	RepositoryManager    shared.GitRepositoryManager
	RepositoryDiscoverer shared.RepositoryDiscoverer
	Logger               *zap.Logger
}

// Options configures a drift report run.
type Options struct {
	Roots []string
}

// Service walks every root and classifies its nested repositories.
type Service struct {
	walker            Walker
	classifier        RepositoryClassifier
	repositoryManager shared.GitRepositoryManager
	discoverer        shared.RepositoryDiscoverer
	logger            *zap.Logger
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Walker == nil {
		return nil, ErrWalkerNotConfigured
	}
	if dependencies.Classifier == nil {
		return nil, ErrClassifierNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if dependencies.RepositoryDiscoverer == nil {
		return nil, ErrRepositoryDiscovererNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		walker:            dependencies.Walker,
		classifier:        dependencies.Classifier,
		repositoryManager: dependencies.RepositoryManager,
		discoverer:        dependencies.RepositoryDiscoverer,
		logger:            logger,
	}, nil
}

// Report initializes, fetches and classifies the nested repositories beneath every root,
// returning them in traversal order. Per-repository failures are recorded on the
// repository; an error is returned only when the context is cancelled.
func (service *Service) Report(executionContext context.Context, options Options) ([]NestedRepository, error) {
	roots := sanitizeRoots(options.Roots)
	if len(roots) == 0 {
		roots = []string{defaultRootPathConstant}
	}

	var nestedRepositories []NestedRepository
	for _, root := range roots {
		if contextError := executionContext.Err(); contextError != nil {
			return nestedRepositories, contextError
		}
		service.logger.Info(reportStartedMessageConstant, zap.String(rootLogFieldConstant, root))
		repositoryPaths, resolutionError := service.resolveRepositories(executionContext, root)
		if resolutionError != nil {
			service.logger.Warn(rootUnavailableMessageConstant, zap.String(rootLogFieldConstant, root), zap.Error(resolutionError))
			nestedRepositories = append(nestedRepositories, unavailableRepository(root, resolutionError))
			continue
		}
		for _, repositoryPath := range repositoryPaths {
			nestedRepositories = append(nestedRepositories, service.reportRepository(executionContext, repositoryPath)...)
		}
	}

	service.logger.Info(reportCompletedMessageConstant, zap.Int(repositoryCountLogFieldConstant, len(nestedRepositories)))
	return nestedRepositories, nil
}

// resolveRepositories returns root itself when it is a work tree, otherwise the
// top-level repositories found beneath it. A root yielding nothing is a RootUnavailableError.
func (service *Service) resolveRepositories(executionContext context.Context, root string) ([]string, error) {
	isWorkTree, workTreeError := service.repositoryManager.IsWorkTree(executionContext, root)
	if workTreeError != nil {
		return nil, RootUnavailableError{Path: root, Cause: workTreeError}
	}
	if isWorkTree {
		return []string{root}, nil
	}

	repositories, discoveryError := service.discoverer.DiscoverRepositories([]string{root})
	if discoveryError != nil {
		return nil, RootUnavailableError{Path: root, Cause: discoveryError}
	}
	if len(repositories) == 0 {
		return nil, RootUnavailableError{Path: root, Cause: ErrNoRepositoriesUnderRoot}
	}
	return repositories, nil
}

func (service *Service) reportRepository(executionContext context.Context, repositoryPath string) []NestedRepository {
	if initializationError := service.walker.InitializeAndUpdate(executionContext, repositoryPath); initializationError != nil {
		service.logger.Warn(initializationFailedMessageConstant, zap.String(repositoryLogFieldConstant, repositoryPath), zap.Error(initializationError))
	}

	fetchSummary, fetchError := service.walker.FetchAll(executionContext, repositoryPath)
	if fetchError != nil {
		service.logger.Warn(fetchDiscoveryFailedMessageConstant, zap.String(repositoryLogFieldConstant, repositoryPath), zap.Error(fetchError))
		return []NestedRepository{unavailableRepository(repositoryPath, RootUnavailableError{Path: repositoryPath, Cause: fetchError})}
	}

	classified := make([]NestedRepository, 0, len(fetchSummary.Repositories))
	for _, relativePath := range fetchSummary.Repositories {
		nestedPath := filepath.Join(repositoryPath, filepath.FromSlash(relativePath))
		nestedRepository := service.classifier.Classify(executionContext, nestedPath)
		nestedRepository.RelativePath = filepath.ToSlash(nestedPath)
		if fetchFailure := fetchSummary.FailureFor(relativePath); fetchFailure != nil {
			nestedRepository = nestedRepository.markIndeterminate(fetchFailure)
		}
		service.logger.Debug(repositoryClassifiedMessageConstant, zap.String(repositoryLogFieldConstant, nestedRepository.RelativePath), zap.String(statusLogFieldConstant, string(nestedRepository.Status)))
		classified = append(classified, nestedRepository)
	}
	return classified
}

func unavailableRepository(path string, problem error) NestedRepository {
	return NestedRepository{RelativePath: filepath.ToSlash(path), Status: StatusIndeterminate, Problem: problem}
}

func sanitizeRoots(raw []string) []string {
	sanitized := make([]string, 0, len(raw))
	for _, candidate := range raw {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}
