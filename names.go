package syncpt

// defaultNames labels the 32 counters of the host1x generation this package
// defaults to. Unassigned ids keep the empty string.
var defaultNames = [DefaultCounters]string{
	0:  "gfx_host",
	12: "vi_isp_0",
	13: "vi_isp_1",
	14: "vi_isp_2",
	15: "vi_isp_3",
	16: "vi_isp_4",
	17: "vi_isp_5",
	18: "2d_0",
	19: "2d_1",
	22: "3d",
	23: "mpe",
	24: "disp0",
	25: "disp1",
	26: "vblank0",
	27: "vblank1",
	28: "mpe_ebm_eof",
	29: "mpe_wr_safe",
	30: "2d_tinyblt",
	31: "dsi",
}

// Name returns the diagnostic label for a counter, or the empty string for
// an unassigned id. Ids outside the counter range panic, including the
// exact table length.
func (sp *Syncpt) Name(id int) string {
	sp.idCheck(id)
	if id >= len(sp.cfg.names) {
		return ""
	}
	return sp.cfg.names[id]
}
