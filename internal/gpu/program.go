//go:build !nogpu

package gpu

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu"
)

// Bind group slots of the diff program.
const (
	bindingParams     = 0
	bindingBackground = 1
	bindingOverlay    = 2
	bindingSampler    = 3
)

// Program is the compiled diff pipeline and its layouts.
type Program struct {
	shader     *wgpu.ShaderModule
	bindLayout *wgpu.BindGroupLayout
	pipeLayout *wgpu.PipelineLayout
	pipeline   *wgpu.RenderPipeline
}

// CheckSource parses, lowers and validates WGSL without a device.
// Parse and lowering failures are reported as a compile ShaderError,
// validation failures as a link ShaderError.
func CheckSource(label, source string) error {
	if strings.TrimSpace(source) == "" {
		return &ShaderError{Stage: StageCompile, Label: label, Log: "empty source"}
	}
	ast, err := naga.Parse(source)
	if err != nil {
		return &ShaderError{Stage: StageCompile, Label: label, Log: err.Error(), cause: err}
	}
	mod, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return &ShaderError{Stage: StageCompile, Label: label, Log: err.Error(), cause: err}
	}
	verrs, err := naga.Validate(mod)
	if err != nil {
		return &ShaderError{Stage: StageLink, Label: label, Log: err.Error(), cause: err}
	}
	if len(verrs) > 0 {
		lines := make([]string, len(verrs))
		for i, v := range verrs {
			lines[i] = v.Error()
		}
		return &ShaderError{Stage: StageLink, Label: label, Log: strings.Join(lines, "\n")}
	}
	return nil
}

// NewProgram validates source and builds the render pipeline on device.
// Any partially created resource is released on failure.
func NewProgram(device *wgpu.Device, label, source string) (*Program, error) {
	if err := CheckSource(label, source); err != nil {
		return nil, err
	}

	p := &Program{}
	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label + "_shader",
		WGSL:  source,
	})
	if err != nil {
		return nil, &ShaderError{Stage: StageCompile, Label: label, Log: err.Error(), cause: err}
	}
	p.shader = shader

	if err := p.link(device, label); err != nil {
		p.Release()
		return nil, &ShaderError{Stage: StageLink, Label: label, Log: err.Error(), cause: err}
	}
	slogger().Debug("gpu: diff program ready", "label", label)
	return p, nil
}

func (p *Program) link(device *wgpu.Device, label string) error {
	fragment := gputypes.ShaderStageFragment
	bindLayout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: label + "_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    bindingParams,
				Visibility: fragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    bindingBackground,
				Visibility: fragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    bindingOverlay,
				Visibility: fragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    bindingSampler,
				Visibility: fragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	// No blend state: the shader writes straight alpha that is read back as is.
	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + "_pipeline",
		Layout: pipeLayout,
		Vertex: wgpu.VertexState{
			Module:     p.shader,
			EntryPoint: shaderEntryVS,
			Buffers:    quadVertexLayout(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.shader,
			EntryPoint: shaderEntryFS,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    targetFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	p.pipeline = pipeline
	return nil
}

// Valid reports whether the pipeline exists.
func (p *Program) Valid() bool {
	return p != nil && p.pipeline != nil
}

// Release frees the pipeline, layouts and shader module.
func (p *Program) Release() {
	if p.pipeline != nil {
		p.pipeline.Release()
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.pipeLayout.Release()
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.bindLayout.Release()
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.shader.Release()
		p.shader = nil
	}
}
