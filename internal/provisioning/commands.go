package provisioning

import (
	"fmt"

	"github.com/hubward/hubward/internal/util/shellescape"
)

// transferTools lists the download tools the pipeline can use, in
// preference order.
var transferTools = []string{"curl", "wget"}

func mkdirCommand(dir string) string {
	return fmt.Sprintf("mkdir -p %s", shellescape.Quote(dir))
}

func commandExists(tool string) string {
	return fmt.Sprintf("command -v %s >/dev/null 2>&1", shellescape.Quote(tool))
}

func downloadCommand(tool, url, dest string) string {
	if tool == "wget" {
		return fmt.Sprintf("wget -q -O %s %s", shellescape.Quote(dest), shellescape.Quote(url))
	}
	return fmt.Sprintf("curl -fsSL -o %s %s", shellescape.Quote(dest), shellescape.Quote(url))
}

func fileExists(path string) string {
	return fmt.Sprintf("test -f %s", shellescape.Quote(path))
}

func verifyArchiveCommand(archive string) string {
	return fmt.Sprintf("tar -tzf %s >/dev/null", shellescape.Quote(archive))
}

func extractCommand(archive, dir string) string {
	return fmt.Sprintf("tar -xzf %s -C %s --strip-components=1 && rm -f %s",
		shellescape.Quote(archive), shellescape.Quote(dir), shellescape.Quote(archive))
}

func npmInstallCommand() string {
	return "npm install --omit=dev"
}

func setupScriptCommand() string {
	return "bash ./setup.sh"
}
