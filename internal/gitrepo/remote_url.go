package gitrepo

import (
	"fmt"
	"path"
	"strings"
)

const (
	sshProtocolPrefixConstant           = "ssh://"
	sshUserDelimiterConstant            = "@"
	sshPathDelimiterConstant            = ":"
	httpsProtocolPrefixConstant         = "https://"
	httpProtocolPrefixConstant          = "http://"
	fileProtocolPrefixConstant          = "file://"
	pathSeparatorConstant               = "/"
	windowsPathSeparatorConstant        = "\\"
	gitSuffixConstant                   = ".git"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	requiredValueMessageConstant        = "value required"
	currentDirectoryNameConstant        = "."
	parentDirectoryNameConstant         = ".."
)

// RemoteProtocol enumerates supported git remote protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
	RemoteProtocolFile  RemoteProtocol = RemoteProtocol("file")
)

// RemoteURL represents a structured git remote URL. Owner holds every path
// segment between the host and the repository, so nested groups survive parsing.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
}

// Identity returns a protocol-independent key identifying the remote repository.
func (remote RemoteURL) Identity() string {
	segments := make([]string, 0, 3)
	for _, segment := range []string{remote.Host, remote.Owner, remote.Repository} {
		if len(segment) == 0 {
			continue
		}
		segments = append(segments, strings.ToLower(segment))
	}
	return strings.Join(segments, pathSeparatorConstant)
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRemoteURL converts a textual remote URL into a structured representation.
// Local paths and file:// URLs are accepted with an empty host.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	switch {
	case strings.HasPrefix(trimmedRemote, sshProtocolPrefixConstant):
		return parseSSHRemote(strings.TrimPrefix(trimmedRemote, sshProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant):
		return parseHTTPSRemote(strings.TrimPrefix(trimmedRemote, httpsProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpProtocolPrefixConstant):
		return parseHTTPSRemote(strings.TrimPrefix(trimmedRemote, httpProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, fileProtocolPrefixConstant):
		return parseFileRemote(strings.TrimPrefix(trimmedRemote, fileProtocolPrefixConstant))
	case isSCPLikeRemote(trimmedRemote):
		return parseSSHRemote(trimmedRemote)
	default:
		return parseFileRemote(trimmedRemote)
	}
}

// RepositoryName derives the conventional clone directory name for a remote.
func RepositoryName(remote string) (string, error) {
	parsedRemote, parseError := ParseRemoteURL(remote)
	if parseError != nil {
		return "", parseError
	}
	return parsedRemote.Repository, nil
}

// SameRepository reports whether two remote strings address the same repository,
// ignoring protocol differences and the optional .git suffix.
func SameRepository(firstRemote string, secondRemote string) bool {
	if strings.TrimSpace(firstRemote) == strings.TrimSpace(secondRemote) {
		return true
	}
	firstParsed, firstError := ParseRemoteURL(firstRemote)
	if firstError != nil {
		return false
	}
	secondParsed, secondError := ParseRemoteURL(secondRemote)
	if secondError != nil {
		return false
	}
	return firstParsed.Identity() == secondParsed.Identity()
}

// isSCPLikeRemote detects user@host:path remotes; a colon before any slash marks the host.
func isSCPLikeRemote(remote string) bool {
	colonIndex := strings.Index(remote, sshPathDelimiterConstant)
	if colonIndex <= 0 {
		return false
	}
	slashIndex := strings.Index(remote, pathSeparatorConstant)
	if slashIndex != -1 && slashIndex < colonIndex {
		return false
	}
	// a single letter before the colon is a Windows drive, not a host
	return colonIndex > 1 || strings.Contains(remote[:colonIndex], sshUserDelimiterConstant)
}

func parseSSHRemote(remote string) (RemoteURL, error) {
	hostAndPath := remote
	if userSplitIndex := strings.Index(remote, sshUserDelimiterConstant); userSplitIndex != -1 {
		hostAndPath = remote[userSplitIndex+1:]
	}
	var host string
	var repositoryPath string
	if pathSplitIndex := strings.Index(hostAndPath, sshPathDelimiterConstant); pathSplitIndex != -1 && !strings.Contains(hostAndPath[:pathSplitIndex], pathSeparatorConstant) {
		host = hostAndPath[:pathSplitIndex]
		repositoryPath = hostAndPath[pathSplitIndex+1:]
		// ssh://host:port/owner/repo keeps the port in front of the path
		if slashIndex := strings.Index(repositoryPath, pathSeparatorConstant); slashIndex != -1 && isNumeric(repositoryPath[:slashIndex]) {
			repositoryPath = repositoryPath[slashIndex+1:]
		}
	} else {
		slashIndex := strings.Index(hostAndPath, pathSeparatorConstant)
		if slashIndex == -1 {
			return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
		}
		host = hostAndPath[:slashIndex]
		repositoryPath = hostAndPath[slashIndex+1:]
	}
	owner, repository, parseError := splitOwnerAndRepository(repositoryPath)
	if parseError != nil {
		return RemoteURL{}, parseError
	}
	return RemoteURL{Protocol: RemoteProtocolSSH, Host: host, Owner: owner, Repository: repository}, nil
}

func parseHTTPSRemote(remote string) (RemoteURL, error) {
	pathComponents := strings.SplitN(remote, pathSeparatorConstant, 2)
	if len(pathComponents) < 2 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	host := pathComponents[0]
	if userSplitIndex := strings.LastIndex(host, sshUserDelimiterConstant); userSplitIndex != -1 {
		host = host[userSplitIndex+1:]
	}
	owner, repository, parseError := splitOwnerAndRepository(pathComponents[1])
	if parseError != nil {
		return RemoteURL{}, parseError
	}
	return RemoteURL{Protocol: RemoteProtocolHTTPS, Host: host, Owner: owner, Repository: repository}, nil
}

func parseFileRemote(remote string) (RemoteURL, error) {
	normalizedPath := path.Clean(strings.ReplaceAll(remote, windowsPathSeparatorConstant, pathSeparatorConstant))
	repository, parseError := normalizeRepositoryName(path.Base(normalizedPath))
	if parseError != nil {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	return RemoteURL{Protocol: RemoteProtocolFile, Owner: path.Dir(normalizedPath), Repository: repository}, nil
}

func splitOwnerAndRepository(repositoryPath string) (string, string, error) {
	trimmedPath := strings.Trim(repositoryPath, pathSeparatorConstant)
	lastSeparatorIndex := strings.LastIndex(trimmedPath, pathSeparatorConstant)
	if lastSeparatorIndex <= 0 {
		return "", "", RemoteURLParseError{Input: repositoryPath, Message: invalidRemoteURLMessageConstant}
	}
	repository, parseError := normalizeRepositoryName(trimmedPath[lastSeparatorIndex+1:])
	if parseError != nil {
		return "", "", parseError
	}
	return trimmedPath[:lastSeparatorIndex], repository, nil
}

func normalizeRepositoryName(repository string) (string, error) {
	trimmed := strings.TrimSuffix(repository, gitSuffixConstant)
	if len(trimmed) == 0 || trimmed == currentDirectoryNameConstant || trimmed == parentDirectoryNameConstant || trimmed == pathSeparatorConstant {
		return "", RemoteURLParseError{Input: repository, Message: invalidRemoteURLMessageConstant}
	}
	return trimmed, nil
}

func isNumeric(value string) bool {
	if len(value) == 0 {
		return false
	}
	for _, character := range value {
		if character < '0' || character > '9' {
			return false
		}
	}
	return true
}
