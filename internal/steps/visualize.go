package steps

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/bookbuilder/internal/foundation/normalization"
)

// VisualizationFormat selects the Visualize output.
type VisualizationFormat string

const (
	FormatText    VisualizationFormat = "text"
	FormatMermaid VisualizationFormat = "mermaid"
)

var formatNormalizer = normalization.NewNormalizer(map[string]VisualizationFormat{
	"text":    FormatText,
	"txt":     FormatText,
	"mermaid": FormatMermaid,
	"mmd":     FormatMermaid,
}, FormatText)

// ParseFormat accepts a format name or its file extension. Empty means text.
func ParseFormat(raw string) (VisualizationFormat, error) {
	return formatNormalizer.NormalizeWithError(raw)
}

// Visualize renders the pipeline order.
func Visualize(pl *Pipeline, format VisualizationFormat) (string, error) {
	switch format {
	case FormatText, "":
		return visualizeText(pl.steps), nil
	case FormatMermaid:
		return visualizeMermaid(pl.steps), nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: text, mermaid)", format)
	}
}

func visualizeText(steps []Step) string {
	var sb strings.Builder
	sb.WriteString("Page Step Pipeline\n")
	sb.WriteString("==================\n\n")

	n := 0
	for _, stage := range StageOrder {
		var inStage []Step
		for _, s := range steps {
			if s.Stage() == stage {
				inStage = append(inStage, s)
			}
		}
		if len(inStage) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "Stage: %s\n", stage)
		for _, s := range inStage {
			n++
			fmt.Fprintf(&sb, "  %d. %s\n", n, s.Name())
			deps := s.Dependencies()
			if len(deps.MustRunAfter) > 0 {
				fmt.Fprintf(&sb, "       after: %s\n", strings.Join(deps.MustRunAfter, ", "))
			}
			if len(deps.MustRunBefore) > 0 {
				fmt.Fprintf(&sb, "       before: %s\n", strings.Join(deps.MustRunBefore, ", "))
			}
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Total: %d steps\n", n)
	return sb.String()
}

func visualizeMermaid(steps []Step) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph TD\n")

	present := make(map[string]bool, len(steps))
	for _, stage := range StageOrder {
		var names []string
		for _, s := range steps {
			if s.Stage() == stage {
				names = append(names, s.Name())
				present[s.Name()] = true
			}
		}
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "    subgraph %s[\"Stage: %s\"]\n", stage, stage)
		for _, name := range names {
			fmt.Fprintf(&sb, "        %s[\"%s\"]\n", mermaidID(name), name)
		}
		sb.WriteString("    end\n")
	}

	// Sequential edges show execution order; dotted edges show declared constraints.
	for i := 1; i < len(steps); i++ {
		fmt.Fprintf(&sb, "    %s --> %s\n", mermaidID(steps[i-1].Name()), mermaidID(steps[i].Name()))
	}
	for _, s := range steps {
		for _, dep := range s.Dependencies().MustRunAfter {
			if present[dep] {
				fmt.Fprintf(&sb, "    %s -.-> %s\n", mermaidID(dep), mermaidID(s.Name()))
			}
		}
	}
	sb.WriteString("```\n")
	return sb.String()
}

func mermaidID(name string) string {
	return strings.NewReplacer("_", "", "-", "").Replace(name)
}
